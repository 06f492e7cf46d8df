package handlers

import (
	"fmt"
	"net/http"
	"testing"
)

func TestProfileEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	userID, token := registerAndLogin(t, env, "frank")
	registerAndLogin(t, env, "grace")

	t.Run("patch profile with no fields", func(t *testing.T) {
		status, body := env.doJSON(t, http.MethodPatch, "/api/v1/profile", token, map[string]string{})
		if status != http.StatusBadRequest || body.Error != "No fields provided for update" {
			t.Fatalf("expected 400, got %d (%s)", status, body.Error)
		}
	})

	t.Run("patch profile to a taken username", func(t *testing.T) {
		status, body := env.doJSON(t, http.MethodPatch, "/api/v1/profile", token, map[string]string{"username": "grace"})
		if status != http.StatusConflict {
			t.Fatalf("expected 409, got %d (%s)", status, body.Error)
		}
	})

	t.Run("patch profile names", func(t *testing.T) {
		status, body := env.doJSON(t, http.MethodPatch, "/api/v1/profile", token, map[string]string{"firstName": "Franklin"})
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", status, body.Error)
		}
		var got struct {
			FirstName string `json:"firstName"`
		}
		body.decode(t, &got)
		if got.FirstName != "Franklin" {
			t.Fatalf("expected updated first name, got %q", got.FirstName)
		}
	})

	t.Run("detail roundtrip", func(t *testing.T) {
		status, body := env.doJSON(t, http.MethodPatch, "/api/v1/profile/detail", token, map[string]interface{}{
			"bio":       "Gopher",
			"interests": []string{" go ", "go", "chess"},
			"socialLinks": map[string]string{
				"twitterUrl": "https://twitter.com/frank",
			},
		})
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", status, body.Error)
		}

		status, body = env.doJSON(t, http.MethodGet, "/api/v1/profile/detail", token, nil)
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", status, body.Error)
		}
		var detail struct {
			Bio         string   `json:"bio"`
			Interests   []string `json:"interests"`
			SocialLinks struct {
				Twitter string `json:"twitterUrl"`
			} `json:"socialLinks"`
		}
		body.decode(t, &detail)
		if detail.Bio != "Gopher" || fmt.Sprint(detail.Interests) != "[go chess]" || detail.SocialLinks.Twitter == "" {
			t.Fatalf("unexpected detail: %+v", detail)
		}
	})

	t.Run("detail validation", func(t *testing.T) {
		status, body := env.doJSON(t, http.MethodPatch, "/api/v1/profile/detail", token, map[string]interface{}{
			"notificationPreferences": map[string]bool{"emailNotifications": false},
		})
		if status != http.StatusBadRequest || body.Error != "Invalid notification preferences format" {
			t.Fatalf("expected 400, got %d (%s)", status, body.Error)
		}
	})

	t.Run("public profile by username and id", func(t *testing.T) {
		for _, key := range []string{"frank", fmt.Sprint(userID)} {
			status, body := env.doJSON(t, http.MethodGet, "/api/v1/profile/details/"+key, "", nil)
			if status != http.StatusOK {
				t.Fatalf("%s: expected 200, got %d (%s)", key, status, body.Error)
			}
			var got struct {
				User   userBody `json:"user"`
				Detail struct {
					UserID uint `json:"userId"`
				} `json:"detail"`
			}
			body.decode(t, &got)
			if got.User.ID != userID || got.Detail.UserID != userID {
				t.Fatalf("%s: unexpected profile %s", key, body.Data)
			}
		}

		status, _ := env.doJSON(t, http.MethodGet, "/api/v1/profile/details/nobody", "", nil)
		if status != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", status)
		}
	})

	t.Run("audit log export", func(t *testing.T) {
		env.audit.Close()
		status, body := env.doJSON(t, http.MethodGet, "/api/v1/profile/audit-log?format=json", token, nil)
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", status, body.Error)
		}
		var logs []struct {
			Action string `json:"action"`
		}
		body.decode(t, &logs)
		if len(logs) == 0 {
			t.Fatal("expected audit entries for the user")
		}

		status, body = env.doJSON(t, http.MethodGet, "/api/v1/profile/audit-log?format=xml", token, nil)
		if status != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown format, got %d (%s)", status, body.Error)
		}
	})

	t.Run("delete account", func(t *testing.T) {
		status, body := env.doJSON(t, http.MethodDelete, "/api/v1/profile", token, nil)
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", status, body.Error)
		}
		status, body = env.doJSON(t, http.MethodGet, "/api/v1/profile", token, nil)
		if status != http.StatusUnauthorized || body.Error != "User not found" {
			t.Fatalf("expected token of deleted user rejected, got %d (%s)", status, body.Error)
		}
	})
}

func TestExpiredAndInvalidTokens(t *testing.T) {
	env := setupTestEnv(t)

	status, body := env.doJSON(t, http.MethodGet, "/api/v1/profile", "not.a.jwt", nil)
	if status != http.StatusUnauthorized || body.Error != "Invalid token" {
		t.Fatalf("expected invalid token, got %d (%s)", status, body.Error)
	}

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	status, resp, _ := env.do(t, req)
	if status != http.StatusUnauthorized || resp.Error != "Invalid token format. Use Bearer token" {
		t.Fatalf("expected format error, got %d (%s)", status, resp.Error)
	}
}
