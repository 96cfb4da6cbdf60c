package entity

// OrderStatus lifecycle status of a production order.
type OrderStatus string

const (
	OrderStatusWait      OrderStatus = "wait"
	OrderStatusInProcess OrderStatus = "in_process"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusRejected  OrderStatus = "rejected"
)

// TaskStatus lifecycle status of a production task.
type TaskStatus string

const (
	TaskStatusWait      TaskStatus = "wait"
	TaskStatusInProcess TaskStatus = "in_process"
	TaskStatusChecking  TaskStatus = "checking"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusRejected  TaskStatus = "rejected"
)

// orderTransitions maps each order status to the statuses it may move to.
// completed is terminal; rejected can only be reopened back to wait.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusWait:      {OrderStatusInProcess, OrderStatusRejected},
	OrderStatusInProcess: {OrderStatusCompleted, OrderStatusRejected},
	OrderStatusCompleted: {},
	OrderStatusRejected:  {OrderStatusWait},
}

// taskTransitions maps each task status to the statuses it may move to.
// checking can fall back to in_process when the inspector returns the work.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusWait:      {TaskStatusInProcess, TaskStatusRejected},
	TaskStatusInProcess: {TaskStatusChecking, TaskStatusRejected},
	TaskStatusChecking:  {TaskStatusCompleted, TaskStatusRejected, TaskStatusInProcess},
	TaskStatusCompleted: {},
	TaskStatusRejected:  {TaskStatusWait},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether the order status may move to target.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s.
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	targets := orderTransitions[s]
	out := make([]OrderStatus, len(targets))
	copy(out, targets)
	return out
}

func (s TaskStatus) Valid() bool {
	_, ok := taskTransitions[s]
	return ok
}

// CanTransitionTo reports whether the task status may move to target.
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	for _, t := range taskTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s.
func (s TaskStatus) AllowedTransitions() []TaskStatus {
	targets := taskTransitions[s]
	out := make([]TaskStatus, len(targets))
	copy(out, targets)
	return out
}
