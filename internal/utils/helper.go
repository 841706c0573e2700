package utils

import (
	"encoding/json"
	"net/http"
	"strings"
)

func WriteJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteJSONError(w http.ResponseWriter, message string, code int) {
	WriteJSON(w, code, map[string]string{"error": message})
}

// NormalizePhoneZW canonicalizes Zimbabwean mobile numbers to the local
// 0-prefixed form the gateway expects.
func NormalizePhoneZW(phone string) string {
	p := strings.TrimSpace(phone)
	p = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(p)

	switch {
	case strings.HasPrefix(p, "+263"):
		return "0" + p[len("+263"):]
	case strings.HasPrefix(p, "263") && len(p) > 9:
		return "0" + p[len("263"):]
	default:
		return p
	}
}
