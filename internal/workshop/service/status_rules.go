package service

import (
	"github.com/Terml/ERP-system/internal/workshop/entity"
)

// StatusRuleValidator checks transitions against the status tables and
// the guards that do not need database access. Guards that count rows
// (all tasks completed) live on the services and run inside the same
// transaction as the write.
type StatusRuleValidator struct{}

func NewStatusRuleValidator() *StatusRuleValidator {
	return &StatusRuleValidator{}
}

// ValidateOrderTransition checks the order status table.
func (v *StatusRuleValidator) ValidateOrderTransition(order *entity.Order, target entity.OrderStatus) error {
	if !target.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown order status " + string(target)}
	}
	if !order.Status.CanTransitionTo(target) {
		allowed := order.Status.AllowedTransitions()
		names := make([]string, len(allowed))
		for i, s := range allowed {
			names[i] = string(s)
		}
		return &InvalidTransitionError{
			Entity:  "order",
			From:    string(order.Status),
			To:      string(target),
			Allowed: names,
		}
	}
	return nil
}

// ValidateTaskTransition checks the task status table plus the
// assignee guards: a task cannot enter in_process or checking, and
// cannot leave checking, without an assigned worker.
func (v *StatusRuleValidator) ValidateTaskTransition(task *entity.ProductionTask, target entity.TaskStatus) error {
	if !target.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown task status " + string(target)}
	}
	if !task.Status.CanTransitionTo(target) {
		allowed := task.Status.AllowedTransitions()
		names := make([]string, len(allowed))
		for i, s := range allowed {
			names[i] = string(s)
		}
		return &InvalidTransitionError{
			Entity:  "task",
			From:    string(task.Status),
			To:      string(target),
			Allowed: names,
		}
	}

	if task.UserID == nil {
		if target == entity.TaskStatusInProcess || target == entity.TaskStatusChecking {
			return &PreconditionError{Reason: "task has no assigned worker"}
		}
		if task.Status == entity.TaskStatusChecking {
			return &PreconditionError{Reason: "task under inspection has no assigned worker"}
		}
	}
	return nil
}
