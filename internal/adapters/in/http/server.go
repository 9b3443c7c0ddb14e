// Package http exposes transport orders over a REST API.
package http

import (
	"context"
	"net/http"
	"strings"

	"tms/internal/core/application/usecases/commands"
	"tms/internal/core/application/usecases/queries"
	"tms/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type CreateOrderHandler interface {
	Handle(ctx context.Context, cmd commands.CreateTransportOrderCommand) (kernel.UUID, error)
}

type UpdateOrderHandler interface {
	Handle(ctx context.Context, cmd commands.UpdateTransportOrderCommand) error
}

type ChangeStateHandler interface {
	Handle(ctx context.Context, cmd commands.ChangeTransportOrderStateCommand) error
}

type RemoveUnitHandler interface {
	Handle(ctx context.Context, cmd commands.RemoveTransportUnitCommand) error
}

type GetOrderHandler interface {
	Handle(ctx context.Context, query queries.GetTransportOrderQuery) (queries.TransportOrderResponse, error)
}

type ListOrdersHandler interface {
	Handle(ctx context.Context, query queries.ListTransportOrdersQuery) ([]queries.TransportOrderResponse, error)
}

type ProblemHistoryHandler interface {
	Handle(ctx context.Context, query queries.GetProblemHistoryQuery) ([]queries.ProblemHistoryResponse, error)
}

// Handlers bundles the use cases behind the API.
type Handlers struct {
	Create         CreateOrderHandler
	Update         UpdateOrderHandler
	ChangeState    ChangeStateHandler
	RemoveUnit     RemoveUnitHandler
	Get            GetOrderHandler
	List           ListOrdersHandler
	ProblemHistory ProblemHistoryHandler
}

// Server translates HTTP requests into commands and queries.
type Server struct {
	handlers Handlers
	logger   *zap.Logger
}

func NewServer(handlers Handlers, logger *zap.Logger) *Server {
	return &Server{
		handlers: handlers,
		logger:   logger.With(zap.String("component", "http_server")),
	}
}

// Register mounts the API, the health check and the metrics endpoint on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.POST("/transport-orders", s.CreateTransportOrder)
	api.GET("/transport-orders", s.ListTransportOrders)
	api.GET("/transport-orders/:pKey", s.GetTransportOrder)
	api.PATCH("/transport-orders/:pKey", s.PatchTransportOrder)
	api.GET("/transport-orders/:pKey/problems", s.GetProblemHistory)
	api.POST("/transport-units/:barcode/removal", s.RemoveTransportUnit)
}

// CreateTransportOrder handles POST /api/v1/transport-orders.
func (s *Server) CreateTransportOrder(c echo.Context) error {
	var body NewTransportOrder
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	key := kernel.NewUUID()
	if body.PKey != "" {
		var err error
		if key, err = kernel.UUIDFromString(body.PKey); err != nil {
			return s.fail(c, err)
		}
	}

	cmd, err := commands.NewCreateTransportOrderCommand(key, body.Barcode, body.Target, body.Priority)
	if err != nil {
		return s.fail(c, err)
	}
	created, err := s.handlers.Create.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}

	c.Response().Header().Set(echo.HeaderLocation, "/api/v1/transport-orders/"+created.String())
	return c.JSON(http.StatusCreated, CreatedTransportOrder{PKey: created.String()})
}

// GetTransportOrder handles GET /api/v1/transport-orders/:pKey.
func (s *Server) GetTransportOrder(c echo.Context) error {
	key, err := kernel.UUIDFromString(c.Param("pKey"))
	if err != nil {
		return s.fail(c, err)
	}
	query, err := queries.NewGetTransportOrderQuery(key)
	if err != nil {
		return s.fail(c, err)
	}

	o, err := s.handlers.Get.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toTransportOrder(o))
}

// ListTransportOrders handles GET /api/v1/transport-orders?barcode=&target=&state=.
// States may be repeated or comma separated.
func (s *Server) ListTransportOrders(c echo.Context) error {
	var states []string
	for _, v := range c.QueryParams()["state"] {
		for _, st := range strings.Split(v, ",") {
			if st = strings.TrimSpace(st); st != "" {
				states = append(states, st)
			}
		}
	}

	query, err := queries.NewListTransportOrdersQuery(c.QueryParam("barcode"), c.QueryParam("target"), states...)
	if err != nil {
		return s.fail(c, err)
	}

	orders, err := s.handlers.List.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	response := make([]TransportOrder, len(orders))
	for i, o := range orders {
		response[i] = toTransportOrder(o)
	}
	return c.JSON(http.StatusOK, response)
}

// PatchTransportOrder handles PATCH /api/v1/transport-orders/:pKey. Field
// changes are applied before a requested state change.
func (s *Server) PatchTransportOrder(c echo.Context) error {
	key, err := kernel.UUIDFromString(c.Param("pKey"))
	if err != nil {
		return s.fail(c, err)
	}
	var body TransportOrderPatch
	if err = c.Bind(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if body.State == nil && !body.hasFields() {
		return badRequest(c, "Nothing to change")
	}

	ctx := c.Request().Context()

	if body.hasFields() {
		var problem *commands.ProblemPatch
		if body.Problem != nil {
			problem = &commands.ProblemPatch{Code: body.Problem.Code, Text: body.Problem.Text}
		}
		cmd, err := commands.NewUpdateTransportOrderCommand(key, body.Priority, body.TargetLocation, body.TargetLocationGroup, problem)
		if err != nil {
			return s.fail(c, err)
		}
		if err = s.handlers.Update.Handle(ctx, cmd); err != nil {
			return s.fail(c, err)
		}
	}

	if body.State != nil {
		cmd, err := commands.NewChangeTransportOrderStateCommand(key, *body.State)
		if err != nil {
			return s.fail(c, err)
		}
		if err = s.handlers.ChangeState.Handle(ctx, cmd); err != nil {
			return s.fail(c, err)
		}
	}

	return c.NoContent(http.StatusNoContent)
}

// GetProblemHistory handles GET /api/v1/transport-orders/:pKey/problems.
func (s *Server) GetProblemHistory(c echo.Context) error {
	key, err := kernel.UUIDFromString(c.Param("pKey"))
	if err != nil {
		return s.fail(c, err)
	}
	query, err := queries.NewGetProblemHistoryQuery(key)
	if err != nil {
		return s.fail(c, err)
	}

	history, err := s.handlers.ProblemHistory.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	response := make([]ProblemHistoryEntry, len(history))
	for i, h := range history {
		response[i] = ProblemHistoryEntry{OccurredAt: h.OccurredAt, Code: h.Code, Text: h.Text, Archived: h.Archived}
	}
	return c.JSON(http.StatusOK, response)
}

// RemoveTransportUnit handles POST /api/v1/transport-units/:barcode/removal.
func (s *Server) RemoveTransportUnit(c echo.Context) error {
	cmd, err := commands.NewRemoveTransportUnitCommand(c.Param("barcode"))
	if err != nil {
		return s.fail(c, err)
	}
	if err = s.handlers.RemoveUnit.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
