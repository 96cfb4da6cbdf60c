package entity

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusWait, OrderStatusInProcess, true},
		{OrderStatusWait, OrderStatusRejected, true},
		{OrderStatusWait, OrderStatusCompleted, false},
		{OrderStatusWait, OrderStatusWait, false},
		{OrderStatusInProcess, OrderStatusCompleted, true},
		{OrderStatusInProcess, OrderStatusRejected, true},
		{OrderStatusInProcess, OrderStatusWait, false},
		{OrderStatusCompleted, OrderStatusWait, false},
		{OrderStatusCompleted, OrderStatusInProcess, false},
		{OrderStatusCompleted, OrderStatusRejected, false},
		{OrderStatusRejected, OrderStatusWait, true},
		{OrderStatusRejected, OrderStatusInProcess, false},
		{OrderStatusRejected, OrderStatusCompleted, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("order %s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestTaskStatusTransitions(t *testing.T) {
	cases := []struct {
		from    TaskStatus
		to      TaskStatus
		allowed bool
	}{
		{TaskStatusWait, TaskStatusInProcess, true},
		{TaskStatusWait, TaskStatusRejected, true},
		{TaskStatusWait, TaskStatusChecking, false},
		{TaskStatusWait, TaskStatusCompleted, false},
		{TaskStatusInProcess, TaskStatusChecking, true},
		{TaskStatusInProcess, TaskStatusRejected, true},
		{TaskStatusInProcess, TaskStatusCompleted, false},
		{TaskStatusInProcess, TaskStatusWait, false},
		{TaskStatusChecking, TaskStatusCompleted, true},
		{TaskStatusChecking, TaskStatusRejected, true},
		{TaskStatusChecking, TaskStatusInProcess, true},
		{TaskStatusChecking, TaskStatusWait, false},
		{TaskStatusCompleted, TaskStatusWait, false},
		{TaskStatusCompleted, TaskStatusInProcess, false},
		{TaskStatusCompleted, TaskStatusChecking, false},
		{TaskStatusCompleted, TaskStatusRejected, false},
		{TaskStatusRejected, TaskStatusWait, true},
		{TaskStatusRejected, TaskStatusInProcess, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("task %s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	if n := len(OrderStatusCompleted.AllowedTransitions()); n != 0 {
		t.Errorf("completed order has %d allowed transitions, want 0", n)
	}
	if n := len(TaskStatusCompleted.AllowedTransitions()); n != 0 {
		t.Errorf("completed task has %d allowed transitions, want 0", n)
	}
}

func TestStatusValid(t *testing.T) {
	if !OrderStatusWait.Valid() || !TaskStatusChecking.Valid() {
		t.Error("known statuses reported invalid")
	}
	if OrderStatus("waiting_inspection").Valid() {
		t.Error("unknown order status reported valid")
	}
	if TaskStatus("done").Valid() {
		t.Error("unknown task status reported valid")
	}
}
