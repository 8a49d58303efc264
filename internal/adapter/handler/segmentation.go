package handler

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-segmenter/errors"
	"github.com/johnquangdev/meeting-segmenter/internal/adapter/dto/common"
	"github.com/johnquangdev/meeting-segmenter/internal/adapter/dto/segment"
	"github.com/johnquangdev/meeting-segmenter/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
	"github.com/johnquangdev/meeting-segmenter/internal/domain/repositories"
	segmentUsecase "github.com/johnquangdev/meeting-segmenter/internal/usecase/segment"
)

// Segmenter runs a segmentation over in-memory inputs
type Segmenter interface {
	Segment(ctx context.Context, strategy, source, topics, transcript string) (*segmentUsecase.Result, error)
}

// Segmentation handles segmentation HTTP requests
type Segmentation struct {
	segmenter Segmenter
	runs      repositories.RunRepository
	logger    *zap.Logger
}

// NewSegmentationHandler creates a new segmentation handler. runs may be
// nil when no database is configured.
func NewSegmentationHandler(segmenter Segmenter, runs repositories.RunRepository, logger *zap.Logger) *Segmentation {
	return &Segmentation{
		segmenter: segmenter,
		runs:      runs,
		logger:    logger,
	}
}

// CreateSegmentation handles POST /segmentations
// @Summary      Segment a transcript by agenda items
// @Description  Partitions the transcript into one contiguous span per topic, in topic order
// @Tags         Segmentations
// @Accept       json
// @Produce      json
// @Param        request  body      segment.CreateSegmentationRequest  true  "Topics and transcript"
// @Success      200      {object}  segment.SegmentationResponse  "Boundary map"
// @Failure      400      {object}  map[string]interface{}  "Invalid request or validation failed"
// @Failure      422      {object}  map[string]interface{}  "Model response could not be recovered"
// @Failure      502      {object}  map[string]interface{}  "Model service failed"
// @Router       /segmentations [post]
func (h *Segmentation) CreateSegmentation(c echo.Context) error {
	var req segment.CreateSegmentationRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload(err))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	source := req.Source
	if source == "" {
		source = "api"
	}

	result, err := h.segmenter.Segment(c.Request().Context(), req.Strategy, source, strings.Join(req.Topics, "\n"), req.Transcript)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToSegmentationResponse(result))
}

// GetSegmentation handles GET /segmentations/:id
// @Summary      Get a recorded segmentation run
// @Tags         Segmentations
// @Produce      json
// @Param        id   path      string  true  "Run ID (UUID)"
// @Success      200  {object}  segment.RunResponse  "Run details"
// @Failure      400  {object}  map[string]interface{}  "Invalid run ID"
// @Failure      404  {object}  map[string]interface{}  "Run not found"
// @Router       /segmentations/{id} [get]
func (h *Segmentation) GetSegmentation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("run ID must be a valid UUID"))
	}

	run, err := h.runs.GetRunByID(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("get run", err))
	}
	if run == nil {
		return HandleError(h.logger, c, errors.ErrNotFound("segmentation run"))
	}

	return HandleSuccess(h.logger, c, presenter.ToRunResponse(run))
}

// ListSegmentations handles GET /segmentations
// @Summary      List recorded segmentation runs
// @Tags         Segmentations
// @Produce      json
// @Param        source     query     string  false  "Source name"
// @Param        strategy   query     string  false  "llm, embedding or moderator"
// @Param        status     query     string  false  "running, completed, skipped or failed"
// @Param        page       query     int     false  "Page number"  default(1)
// @Param        page_size  query     int     false  "Page size"    default(20)
// @Success      200  {object}  common.ListResponse  "Runs, newest first"
// @Router       /segmentations [get]
func (h *Segmentation) ListSegmentations(c echo.Context) error {
	req := segment.ListRunsRequest{Page: 1, PageSize: 20}
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload(err))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	runs, total, err := h.runs.ListRuns(c.Request().Context(), buildRunFilters(&req))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("list runs", err))
	}

	return HandleSuccess(h.logger, c, common.ListResponse{
		Data:       presenter.ToRunResponses(runs),
		Pagination: common.NewPagination(req.Page, req.PageSize, total),
	})
}

// buildRunFilters converts ListRunsRequest to repository filters
func buildRunFilters(req *segment.ListRunsRequest) repositories.RunFilters {
	return repositories.RunFilters{
		Source:   req.Source,
		Strategy: req.Strategy,
		Status:   entities.SegmentationRunStatus(req.Status),
		Limit:    req.PageSize,
		Offset:   (req.Page - 1) * req.PageSize,
	}
}
