package respond

import (
	"encoding/json"
	"net/http"

	"gogarantia/internal/domain"
	apperror "gogarantia/internal/errors"
)

// JSON escreve data como corpo JSON com o status informado.
func JSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// Error traduz err para o corpo padronizado domain.ErrorResponse e retorna o status usado.
func Error(w http.ResponseWriter, err error) int {
	status, category, message := apperror.MapToHTTPStatus(err)
	_ = JSON(w, status, domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
	return status
}
