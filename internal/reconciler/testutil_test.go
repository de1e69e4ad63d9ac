package reconciler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strconv"
	"sync"
	"testing"

	"gitlab.bluewillows.net/root/siloddns/providers/namesilo"
)

// fakeAPI is an in-memory NameSilo domain. It applies update, add and delete
// calls to its record set so later list calls observe them.
type fakeAPI struct {
	domain string

	mu      sync.Mutex
	records []fakeRecord
	nextID  int
	calls   []fakeCall

	// opErr fails every call of an operation.
	opErr map[namesilo.Operation]error
	// idErr fails update and delete calls for a record id.
	idErr map[string]error
	// hostErr fails add calls for a host label.
	hostErr map[string]error
	// listRaw replaces the records returned by list when set.
	listRaw []namesilo.RawRecord
}

type fakeRecord struct {
	id    string
	host  string
	typ   string
	value string
	ttl   int
}

type fakeCall struct {
	op     namesilo.Operation
	params map[string]string
}

func newFakeAPI(domain string) *fakeAPI {
	return &fakeAPI{
		domain:  domain,
		nextID:  1,
		opErr:   make(map[namesilo.Operation]error),
		idErr:   make(map[string]error),
		hostErr: make(map[string]error),
	}
}

// seed adds a record with a generated id and returns the id.
func (f *fakeAPI) seed(label, typ, value string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(label, typ, value, 7207)
}

func (f *fakeAPI) insert(label, typ, value string, ttl int) string {
	id := fmt.Sprintf("rr%03d", f.nextID)
	f.nextID++
	f.records = append(f.records, fakeRecord{
		id:    id,
		host:  FQDN(label, f.domain),
		typ:   typ,
		value: value,
		ttl:   ttl,
	})
	return id
}

func (f *fakeAPI) Execute(_ context.Context, op namesilo.Operation, params map[string]string) (*namesilo.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fakeCall{op: op, params: maps.Clone(params)})

	if !op.Supported() {
		return nil, &namesilo.UnsupportedOperationError{Operation: op}
	}
	if err := f.opErr[op]; err != nil {
		return nil, err
	}

	resp := &namesilo.Response{Operation: op, Code: "300", Detail: "success"}

	switch op {
	case namesilo.OpListRecords:
		if f.listRaw != nil {
			resp.Records = f.listRaw
			return resp, nil
		}
		for _, r := range f.records {
			resp.Records = append(resp.Records, namesilo.RawRecord{Fields: []namesilo.Field{
				{Name: "record_id", Value: r.id},
				{Name: "type", Value: r.typ},
				{Name: "host", Value: r.host},
				{Name: "value", Value: r.value},
				{Name: "ttl", Value: strconv.Itoa(r.ttl)},
				{Name: "distance", Value: "0"},
			}})
		}

	case namesilo.OpUpdateRecord:
		if err := f.idErr[params["rrid"]]; err != nil {
			return nil, err
		}
		i := f.index(params["rrid"])
		if i < 0 {
			return nil, &namesilo.APIError{Operation: op, Code: "280", Detail: "invalid record id"}
		}
		ttl, _ := strconv.Atoi(params["rrttl"])
		f.records[i].host = FQDN(params["rrhost"], f.domain)
		f.records[i].value = params["rrvalue"]
		f.records[i].ttl = ttl

	case namesilo.OpAddRecord:
		if err := f.hostErr[params["rrhost"]]; err != nil {
			return nil, err
		}
		ttl, _ := strconv.Atoi(params["rrttl"])
		resp.RecordID = f.insert(params["rrhost"], params["rrtype"], params["rrvalue"], ttl)

	case namesilo.OpDeleteRecord:
		if err := f.idErr[params["rrid"]]; err != nil {
			return nil, err
		}
		i := f.index(params["rrid"])
		if i < 0 {
			return nil, &namesilo.APIError{Operation: op, Code: "280", Detail: "invalid record id"}
		}
		f.records = append(f.records[:i], f.records[i+1:]...)
	}

	return resp, nil
}

func (f *fakeAPI) index(id string) int {
	for i, r := range f.records {
		if r.id == id {
			return i
		}
	}
	return -1
}

// callsOf returns the recorded calls of op, in order.
func (f *fakeAPI) callsOf(op namesilo.Operation) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeCall
	for _, c := range f.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// mutatingCalls counts update, add and delete calls.
func (f *fakeAPI) mutatingCalls() int {
	return len(f.callsOf(namesilo.OpUpdateRecord)) +
		len(f.callsOf(namesilo.OpAddRecord)) +
		len(f.callsOf(namesilo.OpDeleteRecord))
}

// valuesOf returns the host→value pairs of records of typ.
func (f *fakeAPI) valuesOf(typ string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string)
	for _, r := range f.records {
		if r.typ == typ {
			out[r.host] = r.value
		}
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestSession builds a session over api, failing the test on error.
func newTestSession(t testing.TB, api *fakeAPI, labels ...string) *Session {
	t.Helper()
	sess, err := NewSession(context.Background(), api, api.domain, labels, WithSessionLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return sess
}

// fakeFactory hands out one fakeAPI per domain.
type fakeFactory struct {
	mu   sync.Mutex
	apis map[string]*fakeAPI
}

func newFakeFactory(apis ...*fakeAPI) *fakeFactory {
	f := &fakeFactory{apis: make(map[string]*fakeAPI)}
	for _, a := range apis {
		f.apis[a.domain] = a
	}
	return f
}

func (f *fakeFactory) factory(domain string) API {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apis[domain]
	if !ok {
		a = newFakeAPI(domain)
		f.apis[domain] = a
	}
	return a
}

func (f *fakeFactory) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.apis {
		n += a.callCount()
	}
	return n
}

// recordingNotifier captures notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
	lines    [][]string
	err      error
}

func (n *recordingNotifier) Send(_ context.Context, subject string, lines []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
	n.lines = append(n.lines, append([]string(nil), lines...))
	return n.err
}
