package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Terml/ERP-system/internal/workshop/entity"
	"github.com/Terml/ERP-system/internal/workshop/testutil"
)

func TestTaskCreateStartsWaitingOrder(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	material := testutil.SeedProduct(t, db, "Steel", entity.ProductTypeMaterial)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusWait)

	task, err := services.Task.Create(ctx, CreateTaskInput{
		OrderID:  order.ID,
		Quantity: 5,
		Components: []ComponentInput{
			{ProductID: material.ID, Quantity: 20},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.Status != entity.TaskStatusWait {
		t.Errorf("task status = %s, want wait", task.Status)
	}
	if len(task.Components) != 1 {
		t.Errorf("components = %d, want 1", len(task.Components))
	}

	var reloaded entity.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Status != entity.OrderStatusInProcess {
		t.Errorf("order status = %s, want in_process after first task", reloaded.Status)
	}
}

func TestTaskCreateWithAssignee(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	master := testutil.SeedUser(t, db, "master1", entity.RoleMaster)
	manager := testutil.SeedUser(t, db, "manager1", entity.RoleManager)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)

	task, err := services.Task.Create(ctx, CreateTaskInput{OrderID: order.ID, Quantity: 5, UserID: &master.ID})
	if err != nil {
		t.Fatalf("Create with assignee: %v", err)
	}
	if task.UserID == nil || *task.UserID != master.ID {
		t.Errorf("user_id = %v, want %d", task.UserID, master.ID)
	}

	var validation *ValidationError

	missing := uint(9999)
	_, err = services.Task.Create(ctx, CreateTaskInput{OrderID: order.ID, Quantity: 5, UserID: &missing})
	if !errors.As(err, &validation) {
		t.Errorf("unknown assignee: expected ValidationError, got %v", err)
	}

	_, err = services.Task.Create(ctx, CreateTaskInput{OrderID: order.ID, Quantity: 5, UserID: &manager.ID})
	if !errors.As(err, &validation) {
		t.Errorf("manager assignee: expected ValidationError, got %v", err)
	}
}

func TestTaskCreateRejectedOrder(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusRejected)

	_, err := services.Task.Create(ctx, CreateTaskInput{OrderID: order.ID, Quantity: 5})
	var precondition *PreconditionError
	if !errors.As(err, &precondition) {
		t.Fatalf("task on rejected order: expected PreconditionError, got %v", err)
	}
}

func TestTaskTake(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	user := testutil.SeedUser(t, db, "master1", entity.RoleMaster)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)
	task := testutil.SeedTask(t, db, order.ID, nil, entity.TaskStatusWait)

	taken, err := services.Task.Take(ctx, task.ID, user.ID)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if taken.Status != entity.TaskStatusInProcess {
		t.Errorf("status = %s, want in_process", taken.Status)
	}
	if taken.UserID == nil || *taken.UserID != user.ID {
		t.Errorf("user_id = %v, want %d", taken.UserID, user.ID)
	}

	// second take sees in_process
	other := testutil.SeedUser(t, db, "master2", entity.RoleMaster)
	_, err = services.Task.Take(ctx, task.ID, other.ID)
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("double take: expected InvalidTransitionError, got %v", err)
	}
}

func TestTaskTakeConcurrent(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	alice := testutil.SeedUser(t, db, "alice", entity.RoleMaster)
	bob := testutil.SeedUser(t, db, "bob", entity.RoleMaster)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)
	task := testutil.SeedTask(t, db, order.ID, nil, entity.TaskStatusWait)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, userID := range []uint{alice.ID, bob.ID} {
		wg.Add(1)
		go func(uid uint) {
			defer wg.Done()
			_, err := services.Task.Take(ctx, task.ID, uid)
			results <- err
		}(userID)
	}
	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var invalid *InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Errorf("loser got %v, want InvalidTransitionError", err)
		}
		failures++
	}
	if successes != 1 || failures != 1 {
		t.Errorf("successes=%d failures=%d, want exactly one of each", successes, failures)
	}

	var reloaded entity.ProductionTask
	if err := db.First(&reloaded, task.ID).Error; err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if reloaded.Status != entity.TaskStatusInProcess || reloaded.UserID == nil {
		t.Errorf("task after race: status=%s user=%v", reloaded.Status, reloaded.UserID)
	}
}

func TestTaskSendForInspectionClampsCompletion(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	user := testutil.SeedUser(t, db, "master1", entity.RoleMaster)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)
	task := testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusInProcess)

	sent, err := services.Task.SendForInspection(ctx, task.ID, InspectionInput{
		Notes:                "finished ahead of schedule",
		CompletionPercentage: 150,
	})
	if err != nil {
		t.Fatalf("SendForInspection: %v", err)
	}
	if sent.Status != entity.TaskStatusChecking {
		t.Errorf("status = %s, want checking", sent.Status)
	}

	inspections, err := services.Task.ListInspections(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListInspections: %v", err)
	}
	if len(inspections) != 1 {
		t.Fatalf("inspections = %d, want 1", len(inspections))
	}
	if inspections[0].CompletionPercentage != 100 {
		t.Errorf("completion = %d, want clamped to 100", inspections[0].CompletionPercentage)
	}
}

func TestTaskAcceptCompletesOrderWhenLast(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	user := testutil.SeedUser(t, db, "master1", entity.RoleMaster)
	otk := testutil.SeedUser(t, db, "otk1", entity.RoleOTK)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)
	testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusCompleted)
	last := testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusChecking)

	result, err := services.Task.AcceptByOTKWithOrderCompletion(ctx, last.ID, otk.ID)
	if err != nil {
		t.Fatalf("AcceptByOTKWithOrderCompletion: %v", err)
	}
	if !result.OrderCompleted {
		t.Error("order_completed = false, want true for the last task")
	}
	if result.Task.Status != entity.TaskStatusCompleted {
		t.Errorf("task status = %s, want completed", result.Task.Status)
	}
	if result.Order.Status != entity.OrderStatusCompleted {
		t.Errorf("order status = %s, want completed", result.Order.Status)
	}
}

func TestTaskAcceptLeavesOrderWithOpenTasks(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	user := testutil.SeedUser(t, db, "master1", entity.RoleMaster)
	otk := testutil.SeedUser(t, db, "otk1", entity.RoleOTK)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)
	testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusInProcess)
	checking := testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusChecking)

	result, err := services.Task.AcceptByOTKWithOrderCompletion(ctx, checking.ID, otk.ID)
	if err != nil {
		t.Fatalf("AcceptByOTKWithOrderCompletion: %v", err)
	}
	if result.OrderCompleted {
		t.Error("order_completed = true with an open sibling task")
	}
	if result.Order.Status != entity.OrderStatusInProcess {
		t.Errorf("order status = %s, want in_process", result.Order.Status)
	}
}

func TestTaskRejectAndRework(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	user := testutil.SeedUser(t, db, "master1", entity.RoleMaster)
	otk := testutil.SeedUser(t, db, "otk1", entity.RoleOTK)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)

	checking := testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusChecking)
	reworked, err := services.Task.ReturnForRework(ctx, checking.ID, otk.ID, "seam misaligned")
	if err != nil {
		t.Fatalf("ReturnForRework: %v", err)
	}
	if reworked.Status != entity.TaskStatusInProcess {
		t.Errorf("status = %s, want in_process", reworked.Status)
	}

	second := testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusChecking)
	rejected, err := services.Task.RejectByOTK(ctx, second.ID, otk.ID, "failed strength test")
	if err != nil {
		t.Fatalf("RejectByOTK: %v", err)
	}
	if rejected.Status != entity.TaskStatusRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}

	reopened, err := services.Task.Reopen(ctx, second.ID)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if reopened.Status != entity.TaskStatusWait {
		t.Errorf("status = %s, want wait", reopened.Status)
	}
	if reopened.UserID != nil {
		t.Error("reopened task still assigned")
	}
}

func TestInspectionVerdictRecorded(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	user := testutil.SeedUser(t, db, "master1", entity.RoleMaster)
	otk := testutil.SeedUser(t, db, "otk1", entity.RoleOTK)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)
	task := testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusInProcess)

	_, err := services.Task.SendForInspection(ctx, task.ID, InspectionInput{
		Notes:                 "batch done",
		CompletionPercentage:  100,
		QualitySelfAssessment: 120,
	})
	if err != nil {
		t.Fatalf("SendForInspection: %v", err)
	}

	_, err = services.Task.RejectByOTK(ctx, task.ID, otk.ID, "surface defects on 3 units")
	if err != nil {
		t.Fatalf("RejectByOTK: %v", err)
	}

	inspections, err := services.Task.ListInspections(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListInspections: %v", err)
	}
	if len(inspections) != 1 {
		t.Fatalf("inspections = %d, want 1", len(inspections))
	}
	insp := inspections[0]
	if insp.Verdict != entity.VerdictRejected {
		t.Errorf("verdict = %q, want rejected", insp.Verdict)
	}
	if insp.InspectorID == nil || *insp.InspectorID != otk.ID {
		t.Errorf("inspector_id = %v, want %d", insp.InspectorID, otk.ID)
	}
	if insp.RejectionReason != "surface defects on 3 units" {
		t.Errorf("rejection_reason = %q", insp.RejectionReason)
	}
	if insp.QualitySelfAssessment != 100 {
		t.Errorf("quality_self_assessment = %d, want clamped to 100", insp.QualitySelfAssessment)
	}
}

func TestTaskComponentWindow(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	material := testutil.SeedProduct(t, db, "Steel", entity.ProductTypeMaterial)
	user := testutil.SeedUser(t, db, "master1", entity.RoleMaster)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)

	open := testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusInProcess)
	component, err := services.Task.AddComponent(ctx, open.ID, ComponentInput{ProductID: material.ID, Quantity: 10})
	if err != nil {
		t.Fatalf("AddComponent: %v", err)
	}

	used := 4
	updated, err := services.Task.UpdateComponent(ctx, open.ID, component.ID, UpdateComponentInput{UsedQuantity: &used})
	if err != nil {
		t.Fatalf("UpdateComponent: %v", err)
	}
	if updated.UsedQuantity != 4 {
		t.Errorf("used_quantity = %d, want 4", updated.UsedQuantity)
	}

	over := 11
	_, err = services.Task.UpdateComponent(ctx, open.ID, component.ID, UpdateComponentInput{UsedQuantity: &over})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("over-consumption: expected ValidationError, got %v", err)
	}

	// components are frozen once the task is under inspection
	frozen := testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusChecking)
	_, err = services.Task.AddComponent(ctx, frozen.ID, ComponentInput{ProductID: material.ID, Quantity: 1})
	var precondition *PreconditionError
	if !errors.As(err, &precondition) {
		t.Errorf("add to checking task: expected PreconditionError, got %v", err)
	}
}

func TestReportUsageSendsForInspection(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	material := testutil.SeedProduct(t, db, "Steel", entity.ProductTypeMaterial)
	user := testutil.SeedUser(t, db, "master1", entity.RoleMaster)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)
	task := testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusInProcess)

	c1, err := services.Task.AddComponent(ctx, task.ID, ComponentInput{ProductID: material.ID, Quantity: 10})
	if err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	c2, err := services.Task.AddComponent(ctx, task.ID, ComponentInput{ProductID: material.ID, Quantity: 8})
	if err != nil {
		t.Fatalf("AddComponent: %v", err)
	}

	sent, err := services.Task.ReportUsageAndSendForInspection(ctx, task.ID, []ComponentUsageInput{
		{ComponentID: c1.ID, UsedQuantity: 9},
		{ComponentID: c2.ID, UsedQuantity: 8},
	})
	if err != nil {
		t.Fatalf("ReportUsageAndSendForInspection: %v", err)
	}
	if sent.Status != entity.TaskStatusChecking {
		t.Errorf("status = %s, want checking", sent.Status)
	}

	reloaded, err := services.Task.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	for _, c := range reloaded.Components {
		if c.ID == c1.ID && c.UsedQuantity != 9 {
			t.Errorf("component %d used = %d, want 9", c.ID, c.UsedQuantity)
		}
	}
}

func TestTaskDeleteGuard(t *testing.T) {
	services, db := newTestServices(t)
	ctx := context.Background()

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	user := testutil.SeedUser(t, db, "master1", entity.RoleMaster)
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)

	working := testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusInProcess)
	err := services.Task.Delete(ctx, working.ID)
	var precondition *PreconditionError
	if !errors.As(err, &precondition) {
		t.Fatalf("deleting in_process task: expected PreconditionError, got %v", err)
	}

	waiting := testutil.SeedTask(t, db, order.ID, nil, entity.TaskStatusWait)
	if err := services.Task.Delete(ctx, waiting.ID); err != nil {
		t.Fatalf("Delete waiting task: %v", err)
	}
}
