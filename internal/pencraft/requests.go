package pencraft

import (
	"github.com/aisa-it/pencraft/internal/pencraft/dao"
	"github.com/aisa-it/pencraft/internal/pencraft/types"
)

const maxSearchQueryLength = 200

type CreateWritingRequest struct {
	Title      string             `json:"title"`
	Content    types.RedactorHTML `json:"content" swaggertype:"string"`
	CoverImage string             `json:"cover_image"`
	Category   types.Category     `json:"category" validate:"omitempty,category"`
	Tags       []string           `json:"tags" validate:"tags"`
	IsDraft    bool               `json:"is_draft"`
}

func (req *CreateWritingRequest) Bind(w *dao.Writing) {
	w.Title = req.Title
	w.Content = req.Content
	w.CoverImage = req.CoverImage
	w.Category = req.Category
	w.Tags = types.TagList(req.Tags)
	w.IsDraft = req.IsDraft
}

// UpdateWritingRequest частичное обновление статьи, nil поля не меняются.
type UpdateWritingRequest struct {
	Title      *string             `json:"title,omitempty"`
	Content    *types.RedactorHTML `json:"content,omitempty" swaggertype:"string"`
	CoverImage *string             `json:"cover_image,omitempty"`
	Category   *types.Category     `json:"category,omitempty" validate:"omitempty,category"`
	Tags       *[]string           `json:"tags,omitempty"`
	IsDraft    *bool               `json:"is_draft,omitempty"`
}

func (req *UpdateWritingRequest) Bind(w *dao.Writing) {
	if req.Title != nil {
		w.Title = *req.Title
	}
	if req.Content != nil {
		w.Content = *req.Content
	}
	if req.CoverImage != nil {
		w.CoverImage = *req.CoverImage
	}
	if req.Category != nil {
		w.Category = *req.Category
	}
	if req.Tags != nil {
		w.Tags = types.TagList(*req.Tags)
	}
	if req.IsDraft != nil {
		w.IsDraft = *req.IsDraft
	}
}
