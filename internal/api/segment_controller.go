package api

import (
	"context"

	"github.com/ES-COCO/es-coco/internal/db"
	apperrors "github.com/ES-COCO/es-coco/internal/errors"
	"github.com/ES-COCO/es-coco/internal/transcript"
	"github.com/gofiber/fiber/v2"
)

// Service is the assembly surface the API serves.
type Service interface {
	Segments(ctx context.Context, ids []int64, order db.SegmentOrder) ([]transcript.Segment, error)
	Segment(ctx context.Context, id int64) (transcript.Segment, error)
	Words(ctx context.Context, ids []int64) ([]transcript.Word, error)
	SwitchSegments(ctx context.Context) ([]transcript.Segment, error)
	DataSourceSegments(ctx context.Context, dataSourceID int64) ([]transcript.Segment, error)
	DataSources(ctx context.Context, ids []int64) ([]transcript.DataSource, error)
	DataSource(ctx context.Context, id int64) (transcript.DataSource, error)
}

type ISegmentController interface {
	RegisterRoutes(r fiber.Router)
	GetDataSources(ctx *fiber.Ctx) error
	GetDataSourceSegments(ctx *fiber.Ctx) error
	GetSegments(ctx *fiber.Ctx) error
	GetSwitchSegments(ctx *fiber.Ctx) error
	GetSegmentText(ctx *fiber.Ctx) error
	GetWords(ctx *fiber.Ctx) error
}

type segmentController struct {
	service Service
}

func NewSegmentController(service Service) ISegmentController {
	return &segmentController{service: service}
}

func (c *segmentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/v1")
	h.Get("/datasources", c.GetDataSources)
	h.Get("/datasources/:id/segments", c.GetDataSourceSegments)
	h.Get("/segments", c.GetSegments)
	h.Get("/segments/switch", c.GetSwitchSegments)
	h.Get("/segments/:id/text", c.GetSegmentText)
	h.Get("/words", c.GetWords)
}

type idsQuery struct {
	IDs string `query:"ids" validate:"required"`
}

type segmentsQuery struct {
	IDs   string `query:"ids" validate:"required"`
	Order string `query:"order" validate:"omitempty,oneof=source start"`
}

// SegmentText is a segment rendered as plain text.
type SegmentText struct {
	ID        int64  `json:"id"`
	TimeRange string `json:"timeRange"`
	Text      string `json:"text"`
}

// DataSourceSegments is a data source with its segments.
type DataSourceSegments struct {
	DataSource transcript.DataSource `json:"dataSource"`
	Segments   []transcript.Segment  `json:"segments"`
}

func (c *segmentController) queryIDs(ctx *fiber.Ctx) ([]int64, error) {
	var req idsQuery
	if err := ctx.QueryParser(&req); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidArg, "invalid query")
	}
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	return parseIDs(req.IDs)
}

func (c *segmentController) GetDataSources(ctx *fiber.Ctx) error {
	ids, err := c.queryIDs(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.DataSources(ctx.Context(), ids)
	if err != nil {
		return err
	}

	return ctx.JSON(SuccessResponse("Success get data sources", res))
}

func (c *segmentController) GetDataSourceSegments(ctx *fiber.Ctx) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}

	ds, err := c.service.DataSource(ctx.Context(), id)
	if err != nil {
		return err
	}
	segments, err := c.service.DataSourceSegments(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(SuccessResponse("Success get data source segments", DataSourceSegments{
		DataSource: ds,
		Segments:   segments,
	}))
}

func (c *segmentController) GetSegments(ctx *fiber.Ctx) error {
	var req segmentsQuery
	if err := ctx.QueryParser(&req); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidArg, "invalid query")
	}
	if err := ValidateRequest(req); err != nil {
		return err
	}
	ids, err := parseIDs(req.IDs)
	if err != nil {
		return err
	}
	order, _ := db.ParseSegmentOrder(req.Order)

	res, err := c.service.Segments(ctx.Context(), ids, order)
	if err != nil {
		return err
	}

	return ctx.JSON(SuccessResponse("Success get segments", res))
}

func (c *segmentController) GetSwitchSegments(ctx *fiber.Ctx) error {
	res, err := c.service.SwitchSegments(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(SuccessResponse("Success get switch segments", res))
}

func (c *segmentController) GetSegmentText(ctx *fiber.Ctx) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}

	seg, err := c.service.Segment(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(SuccessResponse("Success get segment text", SegmentText{
		ID:        seg.ID,
		TimeRange: seg.TimeRange(),
		Text:      seg.Text(),
	}))
}

func (c *segmentController) GetWords(ctx *fiber.Ctx) error {
	ids, err := c.queryIDs(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Words(ctx.Context(), ids)
	if err != nil {
		return err
	}

	return ctx.JSON(SuccessResponse("Success get words", res))
}
