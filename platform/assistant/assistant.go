// Package assistant calls the external narrated-chatbot collaborator. The
// core only hands it a read-only projection of player finances; it never
// depends on the reply for state.
package assistant

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/MedicD21/monopoly-banker/platform/board"
	"github.com/valyala/fasthttp"
)

var (
	ErrRateLimited   = errors.New("assistant rate limit reached, try again later")
	ErrNotConfigured = errors.New("assistant is not configured")
)

type PlayerMetric struct {
	PlayerID   string  `json:"playerId"`
	Name       string  `json:"name"`
	Cash       int     `json:"cash"`
	NetWorth   int     `json:"netWorth"`
	Properties int     `json:"properties"`
	Houses     int     `json:"houses"`
	Hotels     int     `json:"hotels"`
	WinShare   float64 `json:"winShare"`
}

type Request struct {
	GameID    string         `json:"gameId"`
	Message   string         `json:"message"`
	UserID    string         `json:"userId"`
	IsPremium bool           `json:"isPremium"`
	Players   []PlayerMetric `json:"players"`
}

type Response struct {
	Reply       string         `json:"reply"`
	Leaderboard []PlayerMetric `json:"leaderboard,omitempty"`
}

// BuildMetrics projects a snapshot into the financial summary the assistant
// receives. Net worth approximates liquidation value: cash plus list price
// (half when mortgaged) plus buildings at cost; win share is the player's
// slice of the total net worth.
func BuildMetrics(players []*models.Player) []PlayerMetric {
	metrics := make([]PlayerMetric, 0, len(players))
	total := 0
	for _, p := range players {
		m := PlayerMetric{
			PlayerID: p.ID,
			Name:     p.Name,
			Cash:     p.Balance,
			NetWorth: p.Balance,
		}
		for _, rec := range p.Properties {
			def, err := board.ByName(rec.Name)
			if err != nil {
				continue
			}
			m.Properties++
			if rec.Mortgaged {
				m.NetWorth += def.Price / 2
			} else {
				m.NetWorth += def.Price
			}
			m.NetWorth += rec.Houses * def.HouseCost
			m.Houses += rec.Houses
			if rec.Hotel {
				m.NetWorth += def.HouseCost
				m.Hotels++
			}
		}
		total += m.NetWorth
		metrics = append(metrics, m)
	}
	for i := range metrics {
		if total > 0 {
			metrics[i].WinShare = float64(metrics[i].NetWorth) / float64(total)
		}
	}
	return metrics
}

// Ask posts the request to the assistant endpoint. A 429 surfaces as
// ErrRateLimited so the caller can show the rate-limit-specific message.
func Ask(url string, req Request) (*Response, error) {
	if url == "" {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq := fasthttp.AcquireRequest()
	httpResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(httpReq)
	defer fasthttp.ReleaseResponse(httpResp)

	httpReq.SetRequestURI(url)
	httpReq.Header.SetMethod(fasthttp.MethodPost)
	httpReq.Header.SetContentType("application/json")
	httpReq.SetBody(body)

	if err := fasthttp.Do(httpReq, httpResp); err != nil {
		return nil, err
	}
	switch httpResp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("assistant returned status %d", httpResp.StatusCode())
	}

	var resp Response
	if err := json.Unmarshal(httpResp.Body(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
