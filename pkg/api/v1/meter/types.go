package meter

import "time"

// Data is one reading from the energy meter on the lamp circuit.
type Data struct {
	Id        string    `json:"id"`
	Model     string    `json:"model"`
	Time      time.Time `json:"time"`
	Current_W float64   `json:"w,omitempty"`
	Total_WH  float64   `json:"wh,omitempty"`
}
