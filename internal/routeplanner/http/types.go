package http

type optimizeReq struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
