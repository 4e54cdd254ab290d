package terminal_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rgonzalo/straddlebot/internal/adapters/terminal"
	"github.com/rgonzalo/straddlebot/internal/domain"
	"github.com/rgonzalo/straddlebot/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "EURUSD", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, `{"symbol":"EURUSD","bid":1.1000,"ask":1.1004,"time":1700000000}`)
	}))
	defer srv.Close()

	c := terminal.NewClient(srv.URL)
	snap, err := c.GetSnapshot(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.InDelta(t, 1.1000, snap.Bid, 1e-9)
	assert.InDelta(t, 1.1004, snap.Ask, 1e-9)
	assert.InDelta(t, 1.1002, snap.Mid(), 1e-9)
	assert.InDelta(t, 0.0004, snap.Spread(), 1e-9)
}

func TestClient_GetSnapshot_NoPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"symbol":"EURUSD","bid":0,"ask":0,"time":0}`)
	}))
	defer srv.Close()

	c := terminal.NewClient(srv.URL)
	_, err := c.GetSnapshot(context.Background(), "EURUSD")
	assert.ErrorIs(t, err, ports.ErrNoPrice)
}

func TestClient_GetSnapshot_UnknownInstrument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"symbol not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := terminal.NewClient(srv.URL)
	_, err := c.GetSnapshot(context.Background(), "NOSUCH")
	assert.ErrorIs(t, err, ports.ErrUnknownInstrument)
}

func TestClient_OpenMarketOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/order/open", r.URL.Path)
		fmt.Fprint(w, `{"retcode":10009,"ticket":4521,"price":1.1004}`)
	}))
	defer srv.Close()

	c := terminal.NewClient(srv.URL)
	fill, err := c.OpenMarketOrder(context.Background(), domain.OrderRequest{
		Instrument: "EURUSD",
		Side:       domain.SideBuy,
		Volume:     0.1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4521), fill.Ticket)
	assert.InDelta(t, 1.1004, fill.FillPrice, 1e-9)
}

func TestClient_OpenMarketOrder_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"retcode":10019,"ticket":0,"price":0}`)
	}))
	defer srv.Close()

	c := terminal.NewClient(srv.URL)
	_, err := c.OpenMarketOrder(context.Background(), domain.OrderRequest{
		Instrument: "EURUSD",
		Side:       domain.SideSell,
		Volume:     0.1,
	})
	require.Error(t, err)

	var gwErr *ports.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, 10019, gwErr.Code)
	assert.Equal(t, "not enough money", gwErr.Message)
}

func TestClient_ClosePosition_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/order/close", r.URL.Path)
		fmt.Fprint(w, `{"retcode":10021}`)
	}))
	defer srv.Close()

	c := terminal.NewClient(srv.URL)
	_, err := c.ClosePosition(context.Background(), 4521, 0.1, domain.SideBuy)
	var gwErr *ports.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, 10021, gwErr.Code)
}

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"connected":true,"account":"demo-1"}`)
	}))
	defer srv.Close()

	c := terminal.NewClient(srv.URL)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestClient_Ping_Disconnected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"connected":false}`)
	}))
	defer srv.Close()

	c := terminal.NewClient(srv.URL)
	assert.Error(t, c.Ping(context.Background()))
}

func TestClient_GetRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"connected":true}`)
	}))
	defer srv.Close()

	c := terminal.NewClient(srv.URL)
	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, 3, calls)
}

func TestRetcodeText(t *testing.T) {
	assert.Equal(t, "not enough money", terminal.RetcodeText(10019))
	assert.Equal(t, "market closed", terminal.RetcodeText(10018))
	assert.Equal(t, "unknown terminal error (retcode 99999)", terminal.RetcodeText(99999))
}
