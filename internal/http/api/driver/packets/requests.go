package packets

type PositionRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	Status    string   `json:"status" binding:"required"`
	Capacity  string   `json:"capacity"`
}
