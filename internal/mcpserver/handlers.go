package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/barberia/internal/booking"
	"github.com/mark3labs/barberia/internal/catalog"
	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools registers the wizard tools with the MCP server.
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("booking_status",
			mcp.WithDescription("Current wizard step, selection, confirmation and watcher state"),
		),
		s.handleStatus,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("list_barbers",
			mcp.WithDescription("Barbers that can be selected"),
		),
		s.handleListBarbers,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("list_services",
			mcp.WithDescription("Services that can be selected, with prices in pesos"),
		),
		s.handleListServices,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("select_barber",
			mcp.WithDescription("Select a barber by id; the wizard moves on after a short delay"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Barber id from list_barbers")),
		),
		s.handleSelectBarber,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("select_service",
			mcp.WithDescription("Select a service by id; the wizard moves on after a short delay"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Service id from list_services")),
		),
		s.handleSelectService,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("advance",
			mcp.WithDescription("Move to the next wizard step"),
		),
		s.handleAdvance,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("retreat",
			mcp.WithDescription("Move to the previous wizard step"),
		),
		s.handleRetreat,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("jump_to",
			mcp.WithDescription("Jump to a step (0 barber, 1 service, 2 summary, 3 calendar, 4 contact)"),
			mcp.WithNumber("step", mcp.Required(), mcp.Description("Target step index")),
		),
		s.handleJumpTo,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("confirm_manually",
			mcp.WithDescription("Press the 'I already booked' control shown on the calendar step"),
		),
		s.handleConfirmManually,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("reset",
			mcp.WithDescription("Clear the selection and start over"),
		),
		s.handleReset,
	)
}

// status is the JSON body returned by booking_status.
type status struct {
	booking.Snapshot
	StepName string `json:"step_name"`
}

// onLoop runs fn on the controller loop and converts loop failures into a
// tool error.
func (s *Server) onLoop(ctx context.Context, fn func() *mcp.CallToolResult) (*mcp.CallToolResult, error) {
	var result *mcp.CallToolResult
	if err := s.loop.Do(ctx, func() { result = fn() }); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("wizard unavailable: %v", err)), nil
	}
	return result, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// stepResult describes where the wizard is after a navigation call.
func (s *Server) stepResult(moved bool) *mcp.CallToolResult {
	step := s.ctrl.Step()
	if !moved {
		return mcp.NewToolResultText(fmt.Sprintf("no change: still on step %d (%s)", step, step))
	}
	return mcp.NewToolResultText(fmt.Sprintf("now on step %d (%s)", step, step))
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.onLoop(ctx, func() *mcp.CallToolResult {
		snap := s.ctrl.Snapshot()
		return jsonResult(status{Snapshot: snap, StepName: snap.Step.String()})
	})
}

func (s *Server) handleListBarbers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.onLoop(ctx, func() *mcp.CallToolResult {
		return jsonResult(s.catalog.Employees)
	})
}

func (s *Server) handleListServices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.onLoop(ctx, func() *mcp.CallToolResult {
		type listed struct {
			catalog.Service
			Display string `json:"display_price"`
		}
		out := make([]listed, 0, len(s.catalog.Services))
		for _, svc := range s.catalog.Services {
			out = append(out, listed{Service: svc, Display: catalog.FormatPrice(svc.Price)})
		}
		return jsonResult(out)
	})
}

func (s *Server) handleSelectBarber(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireID(request)
	if errResult != nil {
		return errResult, nil
	}
	return s.onLoop(ctx, func() *mcp.CallToolResult {
		e, ok := s.catalog.Employee(id)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown barber %q", id))
		}
		if err := s.ctrl.SelectEmployee(e.ID, e.Name); err != nil {
			return mcp.NewToolResultError(err.Error())
		}
		return mcp.NewToolResultText("Barber selected: " + e.Name)
	})
}

func (s *Server) handleSelectService(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireID(request)
	if errResult != nil {
		return errResult, nil
	}
	return s.onLoop(ctx, func() *mcp.CallToolResult {
		svc, ok := s.catalog.Service(id)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown service %q", id))
		}
		if err := s.ctrl.SelectService(svc.ID, svc.Name, svc.Price); err != nil {
			return mcp.NewToolResultError(err.Error())
		}
		return mcp.NewToolResultText(fmt.Sprintf("Service selected: %s - %s", svc.Name, catalog.FormatPrice(svc.Price)))
	})
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.onLoop(ctx, func() *mcp.CallToolResult {
		return s.stepResult(s.ctrl.Advance())
	})
}

func (s *Server) handleRetreat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.onLoop(ctx, func() *mcp.CallToolResult {
		return s.stepResult(s.ctrl.Retreat())
	})
}

func (s *Server) handleJumpTo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("no arguments provided"), nil
	}

	// JSON numbers come as float64
	var step int
	switch v := args["step"].(type) {
	case float64:
		if v != float64(int(v)) {
			return mcp.NewToolResultError("'step' must be a whole number"), nil
		}
		step = int(v)
	case int:
		step = v
	default:
		return mcp.NewToolResultError("missing or invalid 'step' parameter"), nil
	}

	return s.onLoop(ctx, func() *mcp.CallToolResult {
		before := s.ctrl.Step()
		err := s.ctrl.JumpTo(booking.Step(step))
		var verr *booking.ValidationError
		switch {
		case errors.As(err, &verr):
			return mcp.NewToolResultError(fmt.Sprintf("%s: step %d (%s) is not complete", verr.Message, verr.Missing, verr.Missing))
		case errors.Is(err, booking.ErrStepOutOfRange):
			return mcp.NewToolResultError(fmt.Sprintf("step must be between 0 and %d", booking.TotalSteps-1))
		case err != nil:
			return mcp.NewToolResultError(err.Error())
		}
		return s.stepResult(s.ctrl.Step() != before)
	})
}

func (s *Server) handleConfirmManually(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.onLoop(ctx, func() *mcp.CallToolResult {
		if !s.ctrl.ConfirmManually() {
			return mcp.NewToolResultError("the manual confirm control is not available right now")
		}
		return mcp.NewToolResultText("Booking confirmed")
	})
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.onLoop(ctx, func() *mcp.CallToolResult {
		s.ctrl.Reset()
		return mcp.NewToolResultText("Selection cleared")
	})
}

func requireID(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	args := request.GetArguments()
	if args == nil {
		return "", mcp.NewToolResultError("no arguments provided")
	}
	id, ok := args["id"].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return "", mcp.NewToolResultError("missing or invalid 'id' parameter")
	}
	return strings.TrimSpace(id), nil
}
