package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/archify/backend/apps/api/echo"
	"github.com/archify/backend/core"
	"github.com/archify/backend/core/catalog"
	"github.com/archify/backend/core/fixtures"
	"github.com/archify/backend/core/notify"
	"github.com/archify/backend/core/user"
	"github.com/archify/backend/fs"
	"github.com/archify/backend/services/email"
	"github.com/archify/backend/storage/database/sqlx"
	"github.com/archify/backend/tests"
)

type testApp struct {
	server     *Server
	usrRepo    user.Repository
	catalogSvc *catalog.Service
	transport  *emailsvc.ConsoleTransport
}

func setup(t *testing.T) testApp {
	t.Helper()
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(t)

	// set up DB & repos
	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	catalogRepo := sqlxrepos.NewCatalogRepository(db)

	data, err := fixtures.DemoData()
	if err != nil {
		t.Fatalf("fixtures.DemoData() failed: %v", err)
	}
	if _, err = fixtures.NewLoader(catalogRepo, usrRepo, logger).Load(context.Background(), data); err != nil {
		t.Fatalf("Loader.Load() failed: %v", err)
	}

	// set up services
	transport := emailsvc.NewConsoleTransport(nil)
	templates, err := core.ParseEmailTemplates(appfs.EmailTemplates(), conf)
	if err != nil {
		t.Fatalf("ParseEmailTemplates() failed: %v", err)
	}
	dispatcher := notify.NewDispatcher(conf, transport, templates, logger)
	usrSvc := user.NewService(conf, usrRepo, dispatcher, logger)
	catalogSvc := catalog.NewService(catalogRepo)

	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up server
	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		CatalogSvc:     catalogSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = server.Close() })

	return testApp{server: server, usrRepo: usrRepo, catalogSvc: catalogSvc, transport: transport}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runTests(t *testing.T, app testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
