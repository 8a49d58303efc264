package segment

// CreateSegmentationRequest represents the request to segment a transcript
type CreateSegmentationRequest struct {
	Topics     []string `json:"topics" validate:"required,min=1,dive,required,singleline"`
	Transcript string   `json:"transcript" validate:"required"`
	Strategy   string   `json:"strategy,omitempty" validate:"omitempty,oneof=llm embedding moderator"`
	Source     string   `json:"source,omitempty" validate:"omitempty,max=255"`
}

// ListRunsRequest represents query parameters for listing runs
type ListRunsRequest struct {
	Source   string `query:"source"`
	Strategy string `query:"strategy" validate:"omitempty,oneof=llm embedding moderator"`
	Status   string `query:"status" validate:"omitempty,oneof=running completed skipped failed"`
	Page     int    `query:"page" validate:"min=1"`
	PageSize int    `query:"page_size" validate:"min=1,max=100"`
}
