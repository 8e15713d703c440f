package http

type UnmatchedRequest struct {
	Date string `form:"date" binding:"required"`
}

type CandidatesRequest struct {
	Limit int `form:"limit,default=10" binding:"min=1,max=50"`
}

type AssignRequest struct {
	Seat            *int   `json:"seat" binding:"omitempty,min=0"`
	MemberEmail     string `json:"member_email" binding:"omitempty,email"`
	Guest           bool   `json:"guest"`
	GuestName       string `json:"guest_name"`
	Acknowledge     bool   `json:"acknowledge"`
	ExpectedVersion int    `json:"expected_version" binding:"omitempty,min=1"`
}

type UnassignRequest struct {
	ExpectedVersion int `json:"expected_version" binding:"omitempty,min=1"`
}
