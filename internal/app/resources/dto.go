package resources

import "villagelife/internal/domain/resource"

// Request names a resource stack. Quality is read by Add only; nil means 1.
type Request struct {
	Type     string   `json:"type"`
	Quantity float64  `json:"quantity"`
	Quality  *float64 `json:"quality,omitempty"`
}

type ListResponse struct {
	Storage resource.StorageInfo `json:"storage"`
}

type AddResponse struct {
	Added   bool                 `json:"added"`
	Storage resource.StorageInfo `json:"storage"`
}

type RemoveResponse struct {
	Removed  bool    `json:"removed"`
	Quantity float64 `json:"quantity"`
	Quality  float64 `json:"quality"`
}
