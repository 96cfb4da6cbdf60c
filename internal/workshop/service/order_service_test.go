package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Terml/ERP-system/internal/workshop/entity"
	"github.com/Terml/ERP-system/internal/workshop/repository"
	"github.com/Terml/ERP-system/internal/workshop/testutil"
)

func TestOrderCreate(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme Manufacturing")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)

	order, err := services.Order.Create(ctx, CreateOrderInput{
		CompanyID: company.ID,
		ProductID: product.ID,
		Quantity:  100,
		Deadline:  time.Now().AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if order.Status != entity.OrderStatusWait {
		t.Errorf("new order status = %s, want wait", order.Status)
	}
	if order.ID == 0 {
		t.Error("order id not assigned")
	}
}

func TestOrderCreateValidation(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	material := testutil.SeedProduct(t, db, "Steel", entity.ProductTypeMaterial)
	deadline := time.Now().AddDate(0, 1, 0)

	var validation *ValidationError

	_, err := services.Order.Create(ctx, CreateOrderInput{CompanyID: company.ID, ProductID: product.ID, Quantity: 0, Deadline: deadline})
	if !errors.As(err, &validation) {
		t.Errorf("zero quantity: expected ValidationError, got %v", err)
	}

	_, err = services.Order.Create(ctx, CreateOrderInput{CompanyID: 9999, ProductID: product.ID, Quantity: 1, Deadline: deadline})
	if !errors.As(err, &validation) {
		t.Errorf("missing company: expected ValidationError, got %v", err)
	}

	_, err = services.Order.Create(ctx, CreateOrderInput{CompanyID: company.ID, ProductID: material.ID, Quantity: 1, Deadline: deadline})
	if !errors.As(err, &validation) {
		t.Errorf("material product: expected ValidationError, got %v", err)
	}
}

func TestOrderDeadlineRules(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)

	var validation *ValidationError

	past := time.Now().AddDate(0, 0, -30)
	_, err := services.Order.Create(ctx, CreateOrderInput{CompanyID: company.ID, ProductID: product.ID, Quantity: 1, Deadline: past})
	if !errors.As(err, &validation) {
		t.Errorf("past deadline: expected ValidationError, got %v", err)
	}

	tooFar := time.Now().AddDate(3, 0, 0)
	_, err = services.Order.Create(ctx, CreateOrderInput{CompanyID: company.ID, ProductID: product.ID, Quantity: 1, Deadline: tooFar})
	if !errors.As(err, &validation) {
		t.Errorf("deadline three years out: expected ValidationError, got %v", err)
	}

	// update applies the same rule
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusWait)
	_, err = services.Order.Update(ctx, order.ID, UpdateOrderInput{Deadline: &past})
	if !errors.As(err, &validation) {
		t.Errorf("update to past deadline: expected ValidationError, got %v", err)
	}
}

func TestOrderCompleteRequiresAllTasksDone(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	user := testutil.SeedUser(t, db, "master1", entity.RoleMaster)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)
	testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusCompleted)
	open := testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusInProcess)

	_, err := services.Order.Complete(ctx, order.ID)
	var precondition *PreconditionError
	if !errors.As(err, &precondition) {
		t.Fatalf("expected PreconditionError with open task, got %v", err)
	}

	// soft-deleted incomplete tasks do not block completion
	if err := db.Delete(&entity.ProductionTask{}, open.ID).Error; err != nil {
		t.Fatalf("delete task: %v", err)
	}
	completed, err := services.Order.Complete(ctx, order.ID)
	if err != nil {
		t.Fatalf("Complete after removing open task: %v", err)
	}
	if completed.Status != entity.OrderStatusCompleted {
		t.Errorf("order status = %s, want completed", completed.Status)
	}
}

func TestOrderCompleteFromWaitRejected(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusWait)

	_, err := services.Order.Complete(ctx, order.ID)
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("wait -> completed: expected InvalidTransitionError, got %v", err)
	}
}

func TestOrderRejectCascades(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	user := testutil.SeedUser(t, db, "master1", entity.RoleMaster)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)

	waiting := testutil.SeedTask(t, db, order.ID, nil, entity.TaskStatusWait)
	working := testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusInProcess)
	checking := testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusChecking)
	done := testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusCompleted)

	rejected, affected, err := services.Order.Reject(ctx, order.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != entity.OrderStatusRejected {
		t.Errorf("order status = %s, want rejected", rejected.Status)
	}
	if affected != 3 {
		t.Errorf("affected tasks = %d, want 3", affected)
	}

	for _, id := range []uint{waiting.ID, working.ID, checking.ID} {
		var task entity.ProductionTask
		if err := db.First(&task, id).Error; err != nil {
			t.Fatalf("load task %d: %v", id, err)
		}
		if task.Status != entity.TaskStatusRejected {
			t.Errorf("task %d status = %s, want rejected", id, task.Status)
		}
	}

	// completed task survives the cascade
	var survivor entity.ProductionTask
	if err := db.First(&survivor, done.ID).Error; err != nil {
		t.Fatalf("load completed task: %v", err)
	}
	if survivor.Status != entity.TaskStatusCompleted {
		t.Errorf("completed task status = %s after cascade, want completed", survivor.Status)
	}
}

func TestOrderRejectAlreadyRejected(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusRejected)

	// rejected -> rejected is not in the transition table
	_, _, err := services.Order.Reject(ctx, order.ID)
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("rejecting a rejected order: expected InvalidTransitionError, got %v", err)
	}
}

func TestOrderReopen(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusRejected)

	reopened, err := services.Order.Reopen(ctx, order.ID)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if reopened.Status != entity.OrderStatusWait {
		t.Errorf("status = %s, want wait", reopened.Status)
	}

	// completed orders cannot be reopened
	done := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusCompleted)
	_, err = services.Order.Reopen(ctx, done.ID)
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("completed -> wait: expected InvalidTransitionError, got %v", err)
	}
}

func TestOrderArchiveRestoreRoundTrip(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	material := testutil.SeedProduct(t, db, "Steel", entity.ProductTypeMaterial)
	user := testutil.SeedUser(t, db, "master1", entity.RoleMaster)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusCompleted)
	withComponent := testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusCompleted)
	testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusCompleted)

	component := entity.TaskComponent{
		ProductionTaskID: withComponent.ID,
		ProductID:        material.ID,
		Quantity:         12,
		UsedQuantity:     9,
	}
	if err := db.Create(&component).Error; err != nil {
		t.Fatalf("seed component: %v", err)
	}

	if err := services.Order.Archive(ctx, order.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	// order, tasks, and components are gone from the active set
	if _, err := services.Order.Get(ctx, order.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("archived order still readable: %v", err)
	}
	var activeTasks int64
	db.Model(&entity.ProductionTask{}).Where("order_id = ?", order.ID).Count(&activeTasks)
	if activeTasks != 0 {
		t.Errorf("active tasks after archive = %d, want 0", activeTasks)
	}
	var activeComponents int64
	db.Model(&entity.TaskComponent{}).Where("production_task_id = ?", withComponent.ID).Count(&activeComponents)
	if activeComponents != 0 {
		t.Errorf("active components after archive = %d, want 0", activeComponents)
	}
	var componentSnapshots int64
	db.Model(&entity.ArchivedTaskComponent{}).Where("original_order_id = ?", order.ID).Count(&componentSnapshots)
	if componentSnapshots != 1 {
		t.Errorf("component snapshots = %d, want 1", componentSnapshots)
	}

	snapshots, total, err := services.Order.ListArchived(ctx, 1, 20)
	if err != nil || total != 1 {
		t.Fatalf("ListArchived: total=%d err=%v", total, err)
	}
	if snapshots[0].OriginalID != order.ID {
		t.Errorf("snapshot original_id = %d, want %d", snapshots[0].OriginalID, order.ID)
	}

	restored, err := services.Order.Restore(ctx, order.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.ID == order.ID {
		t.Error("restored order reused the original id")
	}
	if restored.Status != entity.OrderStatusCompleted {
		t.Errorf("restored status = %s, want completed", restored.Status)
	}

	var restoredTasks []entity.ProductionTask
	if err := db.Preload("Components").Where("order_id = ?", restored.ID).Find(&restoredTasks).Error; err != nil {
		t.Fatalf("load restored tasks: %v", err)
	}
	if len(restoredTasks) != 2 {
		t.Errorf("restored tasks = %d, want 2", len(restoredTasks))
	}
	var restoredComponents int
	for _, rt := range restoredTasks {
		for _, rc := range rt.Components {
			restoredComponents++
			if rc.Quantity != 12 || rc.UsedQuantity != 9 {
				t.Errorf("restored component qty=%d used=%d, want 12/9", rc.Quantity, rc.UsedQuantity)
			}
		}
	}
	if restoredComponents != 1 {
		t.Errorf("restored components = %d, want 1", restoredComponents)
	}

	// snapshots are consumed by restore
	_, total, err = services.Order.ListArchived(ctx, 1, 20)
	if err != nil || total != 0 {
		t.Errorf("snapshots after restore: total=%d err=%v", total, err)
	}
}

func TestOrderArchiveRequiresTerminalStatus(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)

	err := services.Order.Archive(ctx, order.ID)
	var precondition *PreconditionError
	if !errors.As(err, &precondition) {
		t.Fatalf("archiving in_process order: expected PreconditionError, got %v", err)
	}
}

func TestOrderUpdateGuards(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusCompleted)

	qty := 42
	_, err := services.Order.Update(ctx, order.ID, UpdateOrderInput{Quantity: &qty})
	var precondition *PreconditionError
	if !errors.As(err, &precondition) {
		t.Fatalf("updating completed order: expected PreconditionError, got %v", err)
	}

	rejected := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusRejected)
	_, err = services.Order.Update(ctx, rejected.ID, UpdateOrderInput{Quantity: &qty})
	if !errors.As(err, &precondition) {
		t.Fatalf("updating rejected order: expected PreconditionError, got %v", err)
	}

	_, err = services.Order.Update(ctx, 9999, UpdateOrderInput{Quantity: &qty})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("missing order: expected ErrNotFound, got %v", err)
	}
}
