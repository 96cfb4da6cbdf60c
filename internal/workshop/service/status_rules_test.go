package service

import (
	"errors"
	"testing"

	"github.com/Terml/ERP-system/internal/workshop/entity"
)

func TestValidateOrderTransition(t *testing.T) {
	v := NewStatusRuleValidator()
	order := &entity.Order{Status: entity.OrderStatusWait}

	if err := v.ValidateOrderTransition(order, entity.OrderStatusInProcess); err != nil {
		t.Fatalf("wait -> in_process should be allowed: %v", err)
	}

	err := v.ValidateOrderTransition(order, entity.OrderStatusCompleted)
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("wait -> completed: expected InvalidTransitionError, got %v", err)
	}
	if invalid.From != "wait" || invalid.To != "completed" {
		t.Errorf("error carries %s -> %s, want wait -> completed", invalid.From, invalid.To)
	}
	if len(invalid.Allowed) != 2 {
		t.Errorf("allowed targets = %v, want in_process and rejected", invalid.Allowed)
	}
}

func TestValidateOrderTransitionUnknownStatus(t *testing.T) {
	v := NewStatusRuleValidator()
	order := &entity.Order{Status: entity.OrderStatusWait}

	err := v.ValidateOrderTransition(order, entity.OrderStatus("waiting_inspection"))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for unknown status, got %v", err)
	}
}

func TestValidateTaskTransitionAssigneeGuards(t *testing.T) {
	v := NewStatusRuleValidator()
	userID := uint(7)

	// unassigned task cannot start
	task := &entity.ProductionTask{Status: entity.TaskStatusWait}
	err := v.ValidateTaskTransition(task, entity.TaskStatusInProcess)
	var precondition *PreconditionError
	if !errors.As(err, &precondition) {
		t.Fatalf("unassigned wait -> in_process: expected PreconditionError, got %v", err)
	}

	// assigned task can
	task.UserID = &userID
	if err := v.ValidateTaskTransition(task, entity.TaskStatusInProcess); err != nil {
		t.Fatalf("assigned wait -> in_process should be allowed: %v", err)
	}

	// unassigned task under inspection cannot leave checking
	checking := &entity.ProductionTask{Status: entity.TaskStatusChecking}
	err = v.ValidateTaskTransition(checking, entity.TaskStatusCompleted)
	if !errors.As(err, &precondition) {
		t.Fatalf("unassigned checking -> completed: expected PreconditionError, got %v", err)
	}

	checking.UserID = &userID
	if err := v.ValidateTaskTransition(checking, entity.TaskStatusCompleted); err != nil {
		t.Fatalf("assigned checking -> completed should be allowed: %v", err)
	}
}

func TestValidateTaskTransitionTable(t *testing.T) {
	v := NewStatusRuleValidator()
	userID := uint(7)
	task := &entity.ProductionTask{Status: entity.TaskStatusWait, UserID: &userID}

	err := v.ValidateTaskTransition(task, entity.TaskStatusCompleted)
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("wait -> completed: expected InvalidTransitionError, got %v", err)
	}
}
