package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Terml/ERP-system/internal/config"
	"github.com/Terml/ERP-system/internal/workshop/entity"
	"github.com/Terml/ERP-system/internal/workshop/repository"
	"github.com/Terml/ERP-system/internal/workshop/service"
	"github.com/Terml/ERP-system/internal/workshop/testutil"
)

func setupAPI(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, service.Deps{
		DB:     db,
		JWT:    config.JWTConfig{Secret: testutil.JWTSecret, Issuer: "workshop"},
		Logger: zap.NewNop(),
	})
	r := testutil.SetupRouter()
	RegisterRoutes(r, NewHandlers(services), testutil.JWTSecret)
	return r, db
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	r, db := setupAPI(t)

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	master := testutil.SeedUser(t, db, "master1", entity.RoleMaster)

	managerToken := testutil.GenerateTestToken(99, "manager1", "Manager", entity.RoleManager)
	masterToken := testutil.GenerateTestToken(master.ID, master.Login, master.Name, entity.RoleMaster)
	otkToken := testutil.GenerateTestToken(98, "otk1", "Inspector", entity.RoleOTK)

	// create order
	w := testutil.DoRequest(r, "POST", "/api/v1/orders", gin.H{
		"company_id": company.ID,
		"product_id": product.ID,
		"quantity":   10,
		"deadline":   "2026-12-31",
	}, managerToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create order: status %d body %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	orderData := resp["data"].(map[string]interface{})
	orderID := uint(orderData["id"].(float64))
	if orderData["status"] != "wait" {
		t.Errorf("new order status = %v, want wait", orderData["status"])
	}

	// completing a waiting order is an invalid transition
	w = testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/orders/%d/complete", orderID), nil, managerToken)
	if w.Code != http.StatusConflict {
		t.Fatalf("complete waiting order: status %d, want 409", w.Code)
	}
	resp = testutil.ParseResponse(w)
	if resp["code"].(float64) != 40900 {
		t.Errorf("envelope code = %v, want 40900", resp["code"])
	}

	// add a task, which starts the order
	w = testutil.DoRequest(r, "POST", "/api/v1/tasks", gin.H{
		"order_id": orderID,
		"quantity": 10,
	}, managerToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create task: status %d body %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	taskID := uint(resp["data"].(map[string]interface{})["id"].(float64))

	// worker takes the task
	w = testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/tasks/%d/take", taskID), nil, masterToken)
	if w.Code != http.StatusOK {
		t.Fatalf("take task: status %d body %s", w.Code, w.Body.String())
	}

	// managers cannot take tasks
	w = testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/tasks/%d/take", taskID), nil, managerToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("manager take: status %d, want 403", w.Code)
	}

	// worker sends for inspection
	w = testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/tasks/%d/send-for-inspection", taskID), gin.H{
		"notes":                 "done",
		"completion_percentage": 100,
	}, masterToken)
	if w.Code != http.StatusOK {
		t.Fatalf("send for inspection: status %d body %s", w.Code, w.Body.String())
	}

	// OTK accepts; last task closes the order
	w = testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/tasks/%d/accept", taskID), nil, otkToken)
	if w.Code != http.StatusOK {
		t.Fatalf("accept task: status %d body %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	result := resp["data"].(map[string]interface{})
	if result["order_completed"] != true {
		t.Errorf("order_completed = %v, want true", result["order_completed"])
	}

	// order is now completed
	w = testutil.DoRequest(r, "GET", fmt.Sprintf("/api/v1/orders/%d", orderID), nil, managerToken)
	if w.Code != http.StatusOK {
		t.Fatalf("get order: status %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	if resp["data"].(map[string]interface{})["status"] != "completed" {
		t.Errorf("order status = %v, want completed", resp["data"].(map[string]interface{})["status"])
	}
}

func TestOrderErrorEnvelope(t *testing.T) {
	r, db := setupAPI(t)

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	managerToken := testutil.GenerateTestToken(99, "manager1", "Manager", entity.RoleManager)

	// unauthenticated
	w := testutil.DoRequest(r, "GET", "/api/v1/orders", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", w.Code)
	}

	// not found
	w = testutil.DoRequest(r, "GET", "/api/v1/orders/9999", nil, managerToken)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing order: status %d, want 404", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40400 {
		t.Errorf("envelope code = %v, want 40400", resp["code"])
	}

	// validation error
	w = testutil.DoRequest(r, "POST", "/api/v1/orders", gin.H{
		"company_id": company.ID,
		"product_id": product.ID,
		"quantity":   10,
		"deadline":   "not-a-date",
	}, managerToken)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad deadline: status %d, want 400", w.Code)
	}

	// precondition failure maps to 422
	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)
	testutil.SeedTask(t, db, order.ID, nil, entity.TaskStatusWait)
	w = testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/orders/%d/complete", order.ID), nil, managerToken)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("complete with open tasks: status %d, want 422", w.Code)
	}
	resp = testutil.ParseResponse(w)
	if resp["code"].(float64) != 42200 {
		t.Errorf("envelope code = %v, want 42200", resp["code"])
	}
}

func TestOrderRejectCascadeOverHTTP(t *testing.T) {
	r, db := setupAPI(t)

	company := testutil.SeedCompany(t, db, "Acme")
	product := testutil.SeedProduct(t, db, "Widget", entity.ProductTypeProduct)
	user := testutil.SeedUser(t, db, "master1", entity.RoleMaster)
	managerToken := testutil.GenerateTestToken(99, "manager1", "Manager", entity.RoleManager)

	order := testutil.SeedOrder(t, db, company.ID, product.ID, entity.OrderStatusInProcess)
	testutil.SeedTask(t, db, order.ID, nil, entity.TaskStatusWait)
	testutil.SeedTask(t, db, order.ID, &user.ID, entity.TaskStatusInProcess)

	w := testutil.DoRequest(r, "POST", fmt.Sprintf("/api/v1/orders/%d/reject", order.ID), nil, managerToken)
	if w.Code != http.StatusOK {
		t.Fatalf("reject order: status %d body %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["tasks_rejected"].(float64) != 2 {
		t.Errorf("tasks_rejected = %v, want 2", data["tasks_rejected"])
	}
}
