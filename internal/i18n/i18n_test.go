package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return WithLang(context.Background(), lang)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		lang, id, want string
	}{
		{"en", "AppTitle", "RPS Planner"},
		{"id", "AppTitle", "Perencana RPS"},
		{"en", "RPSApprovedTitle", "RPS approved"},
		{"id", "RPSApprovedTitle", "RPS disetujui"},
	}
	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.id, func(t *testing.T) {
			ctx := initLang(t, tt.lang)
			if got := T(ctx, tt.id); got != tt.want {
				t.Errorf("T(%s) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "UnreadNotifications", 1); got != "1 unread notification" {
		t.Errorf("Tp(1) = %q", got)
	}
	if got := Tp(ctx, "UnreadNotifications", 5); got != "5 unread notifications" {
		t.Errorf("Tp(5) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "id")

	got := Td(ctx, "RPSApprovedBody", map[string]any{"Course": "Algoritma"})
	if got != "RPS Anda untuk Algoritma telah disetujui." {
		t.Errorf("Td = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestMiddleware(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	tests := []struct {
		name   string
		url    string
		cookie string
		accept string
		want   string
	}{
		{"default", "/", "", "", "en"},
		{"accept header", "/", "", "id-ID,id;q=0.9,en;q=0.8", "id"},
		{"cookie", "/", "id", "en", "id"},
		{"query wins", "/?lang=en", "id", "id", "en"},
		{"unsupported", "/", "", "ru", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = Lang(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: langCookie, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("Lang = %q, want %q", got, tt.want)
			}
		})
	}
}
