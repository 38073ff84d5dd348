package dto

type VoteRequest struct {
	Value *int `json:"value"`
}

type VoteResponse struct {
	Score     int64 `json:"score"`
	UserValue int   `json:"user_value"`
}
