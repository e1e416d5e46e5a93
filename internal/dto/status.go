package dto

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// ModelInfoResponse maps class index (as a JSON object key) to name.
type ModelInfoResponse struct {
	ModelLoaded bool           `json:"model_loaded"`
	ClassNames  map[int]string `json:"class_names"`
	NumClasses  int            `json:"num_classes"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
