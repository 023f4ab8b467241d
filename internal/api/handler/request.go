package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/livecharge/livecharge/internal/api/response"
)

// maxBodyBytes caps JSON request bodies. Votes and logins are tiny.
const maxBodyBytes = 4 << 10

// errBodyTooLarge reports a body over maxBodyBytes.
var errBodyTooLarge = fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)

// decodeJSON decodes exactly one JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return errors.New("invalid JSON body")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

// writeDecodeError answers a decodeJSON failure.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBodyTooLarge) {
		response.Problem(w, r, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	response.BadRequest(w, r, err.Error(), nil)
}
