// internal/capture/harvester.go
package capture

import (
	"context"
	"encoding/base64"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/privscope-cli/api/schemas"
)

// requestState tracks the lifecycle of one network request from the moment
// Chrome announces it until its response headers arrive.
type requestState struct {
	request  *network.Request
	response *network.Response
	startTS  *cdp.TimeSinceEpoch
	// page is the URL that was being visited when the request fired.
	page string
	body []byte
}

// Harvester listens to CDP network events on one browser tab and retains
// completed POST exchanges. Everything else (GETs, preflights, requests whose
// response never arrives) is dropped, most of it at event time.
type Harvester struct {
	logger *zap.Logger

	// The context for the browser tab this harvester is attached to.
	sessionCtx context.Context
	// A separate context for the listener goroutine so it can be stopped cleanly.
	listenerCtx    context.Context
	cancelListener context.CancelFunc

	lock        sync.RWMutex
	requests    map[network.RequestID]*requestState
	currentPage string

	// Tracks async post-data fetches so Drain does not race them.
	bodyFetchWG sync.WaitGroup

	isStarted bool
}

// NewHarvester creates a harvester bound to a session context.
func NewHarvester(sessionCtx context.Context, logger *zap.Logger) *Harvester {
	return &Harvester{
		sessionCtx: sessionCtx,
		logger:     logger.Named("harvester"),
		requests:   make(map[network.RequestID]*requestState),
	}
}

// Start enables the network domain and begins listening for events.
func (h *Harvester) Start() error {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.isStarted {
		return nil
	}

	// Derived from the session: if the tab dies, the listener dies with it.
	h.listenerCtx, h.cancelListener = context.WithCancel(h.sessionCtx)

	go h.listen()

	if err := chromedp.Run(h.sessionCtx, network.Enable()); err != nil {
		h.cancelListener()
		return err
	}

	h.isStarted = true
	h.logger.Debug("Harvester started and listening for network events.")
	return nil
}

func (h *Harvester) listen() {
	chromedp.ListenTarget(h.listenerCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			h.handleRequestWillBeSent(e)
		case *network.EventResponseReceived:
			h.handleResponseReceived(e)
		}
	})
}

// SetPage records the URL whose visit is in progress. Requests observed from
// now on are attributed to this page.
func (h *Harvester) SetPage(url string) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.currentPage = url
}

func (h *Harvester) handleRequestWillBeSent(e *network.EventRequestWillBeSent) {
	// On a redirect the previous leg under this ID completes here; its
	// response only exists as RedirectResponse.
	if e.RedirectResponse != nil {
		h.lock.Lock()
		if state, ok := h.requests[e.RequestID]; ok && state.response == nil {
			state.response = e.RedirectResponse
		}
		h.lock.Unlock()
	}

	if e.Request == nil || !strings.EqualFold(e.Request.Method, http.MethodPost) {
		return
	}

	h.lock.Lock()
	state := &requestState{
		request: e.Request,
		startTS: e.WallTime,
		page:    h.currentPage,
		body:    decodePostData(e.Request),
	}
	h.requests[e.RequestID] = state
	needsFetch := e.Request.HasPostData && len(state.body) == 0
	if needsFetch {
		h.bodyFetchWG.Add(1)
	}
	h.lock.Unlock()

	// Large bodies are not inlined in the event; ask for them separately.
	if needsFetch {
		go h.fetchPostData(e.RequestID)
	}
}

func (h *Harvester) handleResponseReceived(e *network.EventResponseReceived) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if state, ok := h.requests[e.RequestID]; ok {
		state.response = e.Response
	}
}

// decodePostData reassembles the inline post data entries. CDP base64-encodes
// each entry; entries that fail to decode are taken verbatim, which matches
// how older Chrome versions deliver plain text here.
func decodePostData(req *network.Request) []byte {
	if len(req.PostDataEntries) == 0 {
		return nil
	}
	var buf []byte
	for _, entry := range req.PostDataEntries {
		if entry == nil || entry.Bytes == "" {
			continue
		}
		if decoded, err := base64.StdEncoding.DecodeString(entry.Bytes); err == nil {
			buf = append(buf, decoded...)
		} else {
			buf = append(buf, entry.Bytes...)
		}
	}
	return buf
}

// fetchPostData grabs a request body Chrome withheld from the event stream.
// Runs in its own goroutine.
func (h *Harvester) fetchPostData(requestID network.RequestID) {
	defer h.bodyFetchWG.Done()

	if h.sessionCtx.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(h.sessionCtx, 15*time.Second)
	defer cancel()

	var body string
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		body, err = network.GetRequestPostData(requestID).Do(ctx)
		return err
	}))
	if err != nil {
		if ctx.Err() == nil {
			h.logger.Debug("Failed to fetch request post data.",
				zap.String("request_id", string(requestID)), zap.Error(err))
		}
		return
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	if state, ok := h.requests[requestID]; ok && len(state.body) == 0 {
		state.body = []byte(body)
	}
}

// Drain stops event collection, waits for pending body fetches, and returns
// every POST whose response was observed, ordered by start time. Requests
// that never got a response are dropped here.
func (h *Harvester) Drain(ctx context.Context) []schemas.ObservedRequest {
	h.lock.Lock()
	if h.isStarted {
		h.cancelListener()
		h.cancelListener = nil
		h.isStarted = false
	}
	h.lock.Unlock()

	h.waitForPendingFetches(ctx)

	h.lock.RLock()
	defer h.lock.RUnlock()

	type timedRequest struct {
		at  time.Time
		req schemas.ObservedRequest
	}
	out := make([]timedRequest, 0, len(h.requests))
	for _, state := range h.requests {
		if state.request == nil || state.response == nil {
			continue
		}
		out = append(out, timedRequest{
			at: startTime(state),
			req: schemas.ObservedRequest{
				URL:            state.request.URL,
				Method:         state.request.Method,
				RequestHeaders: headerMap(state.request.Headers),
				RawBody:        state.body,
				ResponseStatus: int(state.response.Status),
				OriginPageURL:  state.page,
			},
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })

	requests := make([]schemas.ObservedRequest, len(out))
	for i, tr := range out {
		requests[i] = tr.req
	}
	return requests
}

func (h *Harvester) waitForPendingFetches(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		h.bodyFetchWG.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		h.logger.Warn("Timed out waiting for request bodies.", zap.Error(ctx.Err()))
	}
}

func startTime(state *requestState) time.Time {
	if state.startTS == nil {
		return time.Time{}
	}
	return state.startTS.Time()
}

// headerMap flattens CDP headers into a string map. Multi-value headers come
// newline-joined from CDP; the first value wins.
func headerMap(headers network.Headers) map[string]string {
	out := make(map[string]string, len(headers))
	for name, value := range headers {
		if valStr, ok := value.(string); ok {
			out[name] = strings.Split(valStr, "\n")[0]
		}
	}
	return out
}
