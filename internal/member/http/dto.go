package http

import "github.com/nekogravitycat/bay-booking-backend/internal/member"

type SearchRequest struct {
	Query string `form:"q" binding:"required"`
	Limit int    `form:"limit,default=20" binding:"min=1,max=50"`
}

type MemberResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Tier  string `json:"tier"`
}

func NewMemberResponse(m *member.Member) MemberResponse {
	return MemberResponse{ID: m.ID, Email: m.Email, Name: m.Name, Tier: m.Tier}
}
