package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/rocketscienceinc/dotsandboxes-backend/internal/apperror"
)

const qrSize = 320

type gameSummary struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Players int    `json:"players"`
}

type gamesResponse struct {
	Games []gameSummary `json:"games"`
}

type inviteResponse struct {
	GameID string `json:"gameId"`
	URL    string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) handleListGames(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	games, err := that.uGame.ListGames(r.Context())
	if err != nil {
		that.writeError(w, "handleListGames", err)
		return
	}

	response := gamesResponse{Games: make([]gameSummary, 0, len(games))}
	for _, game := range games {
		response.Games = append(response.Games, gameSummary{
			ID:      game.ID,
			Status:  game.Status,
			Players: len(game.Players),
		})
	}

	that.writeJSON(w, http.StatusOK, response)
}

func (that *Server) handleInvite(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	link, err := that.invite(r, ps.ByName("id"))
	if err != nil {
		that.writeError(w, "handleInvite", err)
		return
	}

	that.writeJSON(w, http.StatusOK, inviteResponse{GameID: ps.ByName("id"), URL: link})
}

func (that *Server) handleQRCode(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	link, err := that.invite(r, ps.ByName("id"))
	if err != nil {
		that.writeError(w, "handleQRCode", err)
		return
	}

	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		that.writeError(w, "handleQRCode", fmt.Errorf("failed to encode qr code: %w", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)

	if _, err = w.Write(png); err != nil {
		that.logger.Error("failed to write response", "method", "handleQRCode", "error", err)
	}
}

// invite builds the link a second player opens to join the game.
func (that *Server) invite(r *http.Request, gameID string) (string, error) {
	if _, err := that.uGame.GetGame(r.Context(), gameID); err != nil {
		return "", err
	}

	return inviteLink(that.inviteURL, gameID)
}

func inviteLink(base, gameID string) (string, error) {
	link, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid invite url: %w", err)
	}

	query := link.Query()
	query.Set("gameId", gameID)
	link.RawQuery = query.Encode()

	return link.String(), nil
}

func (that *Server) writeError(w http.ResponseWriter, method string, err error) {
	if errors.Is(err, apperror.ErrGameNotFound) {
		that.writeJSON(w, http.StatusNotFound, errorResponse{Error: apperror.ErrGameNotFound.Error()})
		return
	}

	that.logger.Error("request failed", "method", method, "error", err)
	that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
