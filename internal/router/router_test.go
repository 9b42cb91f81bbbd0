package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"adoption-followup/internal/adapters/auth/jwtauth"
	"adoption-followup/internal/router"
)

type caller struct {
	userID string
	role   string
	token  string
}

var (
	devAdmin   = caller{userID: "admin-1", role: "admin"}
	devRegular = caller{userID: "user-1"}
	anonymous  = caller{}
)

func TestHTTP_EndToEnd_FormLifecycle(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	// 1) Admin registra al responsable
	responsibleID := registerUser(t, ts.URL, devAdmin, "vet-ana", "secret-pass", "regular")

	// 2) Se registra el animal
	animalID := createAnimal(t, ts.URL, devRegular, responsibleID)

	// 3) Formulario creado desde el animal
	var form map[string]any
	{
		st, body := doReq(t, ts.URL, "POST", "/animals/"+animalID+"/create-form", devRegular, nil)
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create form, got %d body=%s", st, string(body))
		}
		_ = json.Unmarshal(body, &form)
	}
	formID, _ := form["id"].(string)
	if formID == "" {
		t.Fatalf("create form: missing id %v", form)
	}

	// 4) El animal queda pendiente de envío
	assertListed(t, ts.URL, "/animals/pending-send", animalID, true)

	// 5) Se marca enviado: fechas y espejo en el animal
	{
		st, body := doReq(t, ts.URL, "PUT", "/forms/"+formID, devRegular, map[string]any{"is_sent": true})
		if st != http.StatusOK {
			t.Fatalf("expected 200 mark sent, got %d body=%s", st, string(body))
		}
		var got map[string]any
		_ = json.Unmarshal(body, &got)
		if got["send_date"] == nil || got["control_due_date"] == nil {
			t.Fatalf("expected send_date and control_due_date, got %s", string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/animals/"+animalID, devRegular, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get animal, got %d", st)
		}
		var a map[string]any
		_ = json.Unmarshal(body, &a)
		if a["is_sent"] != true || a["last_form_sent_date"] == nil {
			t.Fatalf("animal not mirrored after send: %s", string(body))
		}
	}
	assertListed(t, ts.URL, "/animals/pending-control", animalID, true)
	assertListed(t, ts.URL, "/animals/pending-send", animalID, false)

	// 6) Control con revisión
	{
		st, body := doReq(t, ts.URL, "PUT", "/forms/"+formID, devRegular, map[string]any{"is_controlled": true, "need_review": true})
		if st != http.StatusOK {
			t.Fatalf("expected 200 mark controlled, got %d body=%s", st, string(body))
		}
	}
	assertListed(t, ts.URL, "/animals/need-review", animalID, true)
	assertListed(t, ts.URL, "/forms/need-review", formID, true)

	// 7) Listado por animal y por ids
	{
		st, body := doReq(t, ts.URL, "GET", "/forms/animal/"+animalID, devRegular, nil)
		if st != http.StatusOK || !strings.Contains(string(body), formID) {
			t.Fatalf("expected form in animal list, got %d body=%s", st, string(body))
		}
		st, body = doReq(t, ts.URL, "POST", "/forms/by-ids", devRegular, []string{formID, "missing"})
		if st != http.StatusOK || !strings.Contains(string(body), formID) {
			t.Fatalf("expected form in by-ids, got %d body=%s", st, string(body))
		}
	}

	// 8) Borrar animal borra sus formularios
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/animals/"+animalID, devRegular, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 delete animal, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", "/forms/"+formID, devRegular, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 form after cascade, got %d", st)
		}
	}
}

func TestHTTP_CreateAnimal_Validation(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	// responsable inexistente => 404
	st, _ := doReq(t, ts.URL, "POST", "/animals", devRegular, animalPayload("ghost"))
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 unknown responsible, got %d", st)
	}

	responsibleID := registerUser(t, ts.URL, devAdmin, "vet-bea", "secret-pass", "")
	bad := animalPayload(responsibleID)
	bad["owner_contact_email"] = "not-an-email"
	st, _ = doReq(t, ts.URL, "POST", "/animals", devRegular, bad)
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 bad email, got %d", st)
	}

	bad = animalPayload(responsibleID)
	bad["form_generation_period"] = 0
	st, _ = doReq(t, ts.URL, "POST", "/animals", devRegular, bad)
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 zero period, got %d", st)
	}

	st, _ = doReq(t, ts.URL, "GET", "/animals/unknown-status-route-id", devRegular, nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 unknown animal, got %d", st)
	}
}

func TestHTTP_Authorization(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	cases := []struct {
		name   string
		method string
		path   string
		who    caller
		want   int
	}{
		{"animals need auth", "GET", "/animals", anonymous, http.StatusUnauthorized},
		{"forms need auth", "GET", "/forms", anonymous, http.StatusUnauthorized},
		{"regular lists animals", "GET", "/animals", devRegular, http.StatusOK},
		{"register is admin only", "POST", "/users/register", devRegular, http.StatusForbidden},
		{"list users is admin only", "GET", "/users", devRegular, http.StatusForbidden},
		{"trigger is admin only", "POST", "/forms/generate-periodic", devRegular, http.StatusForbidden},
		{"admin triggers", "POST", "/forms/generate-periodic", devAdmin, http.StatusOK},
		{"login disabled in dev", "POST", "/users/login", anonymous, http.StatusNotImplemented},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body any
			if tc.path == "/users/login" {
				body = map[string]any{"name": "x", "password": "y"}
			}
			st, raw := doReq(t, ts.URL, tc.method, tc.path, tc.who, body)
			if st != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, st, string(raw))
			}
		})
	}
}

func TestHTTP_JWTLoginAndManualTrigger(t *testing.T) {
	tokens, err := jwtauth.New(jwtauth.Config{Secret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatalf("jwtauth: %v", err)
	}
	app := router.New(router.Options{AuthVerifier: tokens, Tokens: tokens})
	if _, _, err := app.Users.EnsureAdmin(context.Background(), "root", "root-pass"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	ts := httptest.NewServer(app.Handler)
	defer ts.Close()

	// header de dev no sirve con verifier configurado
	if st, _ := doReq(t, ts.URL, "GET", "/animals", devAdmin, nil); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 with debug header in jwt mode, got %d", st)
	}

	if st, _ := doReq(t, ts.URL, "POST", "/users/login", anonymous, map[string]any{"name": "root", "password": "bad"}); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 wrong password, got %d", st)
	}

	admin := caller{token: login(t, ts.URL, "root", "root-pass")}

	{
		st, body := doReq(t, ts.URL, "GET", "/users/me", admin, nil)
		if st != http.StatusOK || !strings.Contains(string(body), `"role":"admin"`) {
			t.Fatalf("expected admin profile, got %d body=%s", st, string(body))
		}
	}

	responsibleID := registerUser(t, ts.URL, admin, "vet-carla", "carla-pass", "regular")
	animalID := createAnimal(t, ts.URL, admin, responsibleID)

	// Animal sin envíos previos: el trigger manual crea un formulario
	{
		st, body := doReq(t, ts.URL, "POST", "/forms/generate-periodic", admin, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 generate, got %d body=%s", st, string(body))
		}
		var res struct {
			Created int `json:"created"`
			Forms   []struct {
				AnimalID string `json:"animal_id"`
			} `json:"forms"`
		}
		_ = json.Unmarshal(body, &res)
		if res.Created != 1 || len(res.Forms) != 1 || res.Forms[0].AnimalID != animalID {
			t.Fatalf("expected one form for %s, got %s", animalID, string(body))
		}
	}

	// Segunda corrida: ya hay un formulario sin enviar
	{
		st, body := doReq(t, ts.URL, "POST", "/forms/generate-periodic", admin, nil)
		if st != http.StatusOK || !strings.Contains(string(body), `"created":0`) {
			t.Fatalf("expected no new forms, got %d body=%s", st, string(body))
		}
	}

	// Un usuario regular puede operar animales pero no el trigger
	regular := caller{token: tokenForm(t, ts.URL, "vet-carla", "carla-pass")}
	if st, _ := doReq(t, ts.URL, "GET", "/animals/"+animalID, regular, nil); st != http.StatusOK {
		t.Fatalf("expected 200 regular get animal, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "POST", "/forms/generate-periodic", regular, nil); st != http.StatusForbidden {
		t.Fatalf("expected 403 regular trigger, got %d", st)
	}

	// Métricas del due-check
	{
		st, body := doReq(t, ts.URL, "GET", "/metrics", anonymous, nil)
		if st != http.StatusOK || !strings.Contains(string(body), `duecheck_runs_total{trigger="manual"} 2`) {
			t.Fatalf("expected duecheck metrics, got %d", st)
		}
	}
}

func TestHTTP_RootAndHealth(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	st, body := doReq(t, ts.URL, "GET", "/health", anonymous, nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("expected 200 ok, got %d body=%s", st, string(body))
	}
	st, body = doReq(t, ts.URL, "GET", "/", anonymous, nil)
	if st != http.StatusOK || !strings.Contains(string(body), "adoption-followup") {
		t.Fatalf("expected root info, got %d body=%s", st, string(body))
	}
}

func registerUser(t *testing.T, baseURL string, who caller, name, password, role string) string {
	t.Helper()

	payload := map[string]any{"name": name, "password": password}
	if role != "" {
		payload["role"] = role
	}
	st, body := doReq(t, baseURL, "POST", "/users/register", who, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register, got %d body=%s", st, string(body))
	}
	return idOf(t, body)
}

func animalPayload(responsibleID string) map[string]any {
	return map[string]any{
		"name":                   "Milo",
		"responsible_user_id":    responsibleID,
		"owner_name":             "Carla Pérez",
		"owner_contact_number":   "555-0101",
		"owner_contact_email":    "carla@example.com",
		"form_generation_period": 3,
	}
}

func createAnimal(t *testing.T, baseURL string, who caller, responsibleID string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/animals", who, animalPayload(responsibleID))
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create animal, got %d body=%s", st, string(body))
	}
	return idOf(t, body)
}

func assertListed(t *testing.T, baseURL, path, id string, want bool) {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", path, devRegular, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 %s, got %d", path, st)
	}
	var items []struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &items)
	found := false
	for _, it := range items {
		if it.ID == id {
			found = true
		}
	}
	if found != want {
		t.Fatalf("%s: listed=%v, want %v body=%s", path, found, want, string(body))
	}
}

func login(t *testing.T, baseURL, name, password string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/users/login", anonymous, map[string]any{"name": name, "password": password})
	if st != http.StatusOK {
		t.Fatalf("expected 200 login, got %d body=%s", st, string(body))
	}
	return accessToken(t, body)
}

// tokenForm usa el endpoint OAuth2 (form urlencoded).
func tokenForm(t *testing.T, baseURL, name, password string) string {
	t.Helper()

	form := url.Values{"username": {name}, "password": {password}}
	res, err := http.PostForm(baseURL+"/users/token", form)
	if err != nil {
		t.Fatalf("post form: %v", err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 token, got %d body=%s", res.StatusCode, string(body))
	}
	return accessToken(t, body)
}

func accessToken(t *testing.T, body []byte) string {
	t.Helper()

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.AccessToken == "" || resp.TokenType != "bearer" {
		t.Fatalf("bad token response: %s", string(body))
	}
	return resp.AccessToken
}

func idOf(t *testing.T, body []byte) string {
	t.Helper()

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path string, who caller, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if who.userID != "" {
		req.Header.Set("X-Debug-User-ID", who.userID)
	}
	if who.role != "" {
		req.Header.Set("X-Debug-Role", who.role)
	}
	if who.token != "" {
		req.Header.Set("Authorization", "Bearer "+who.token)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
