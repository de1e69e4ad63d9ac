package reconciler

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gitlab.bluewillows.net/root/siloddns/providers/namesilo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DryRun {
		t.Error("DefaultConfig should have DryRun=false")
	}
	if cfg.TTL != 3600 {
		t.Errorf("DefaultConfig TTL = %d, want 3600", cfg.TTL)
	}
}

func TestNew(t *testing.T) {
	r := New()
	if r.Config() != DefaultConfig() {
		t.Errorf("New() config = %+v, want defaults", r.Config())
	}

	r = New(WithConfig(Config{TTL: 600, DryRun: true}), WithLogger(testLogger()))
	if !r.Config().DryRun {
		t.Error("WithConfig should set DryRun")
	}
	if r.Config().TTL != 600 {
		t.Errorf("WithConfig TTL = %d, want 600", r.Config().TTL)
	}
}

func TestUpdate_EndToEndAddsMissingHost(t *testing.T) {
	api := newFakeAPI("example.com")
	sess := newTestSession(t, api, "home")

	r := New(WithLogger(testLogger()))
	result, err := r.Update(context.Background(), sess, "10.0.0.5", "")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if result.RecordType != RecordTypeA {
		t.Errorf("RecordType = %q, want A", result.RecordType)
	}
	if result.UpdatesRequired != 0 || result.AddsRequired != 1 {
		t.Errorf("required = %d updates / %d adds, want 0 / 1", result.UpdatesRequired, result.AddsRequired)
	}

	adds := api.callsOf(namesilo.OpAddRecord)
	if len(adds) != 1 {
		t.Fatalf("AddRecord calls = %d, want 1", len(adds))
	}
	want := map[string]string{"rrtype": "A", "rrhost": "home", "rrvalue": "10.0.0.5", "rrttl": "3600"}
	if diff := cmp.Diff(want, adds[0].params); diff != "" {
		t.Errorf("AddRecord params mismatch (-want +got):\n%s", diff)
	}

	records := sess.Records()
	if len(records) != 1 {
		t.Fatalf("snapshot has %d records, want 1", len(records))
	}
	if records[0].Host != "home.example.com" || records[0].Type != RecordTypeA || records[0].Value != "10.0.0.5" {
		t.Errorf("snapshot record = %s", records[0])
	}

	if diff := cmp.Diff([]string{"Added home.example.com A 10.0.0.5"}, result.Changes); diff != "" {
		t.Errorf("Changes mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdate_UpdatesDifferingRecords(t *testing.T) {
	api := newFakeAPI("example.com")
	homeID := api.seed("home", "A", "1.1.1.1")
	api.seed("www", "A", "10.0.0.5")
	api.seed("", "A", "2.2.2.2")
	api.seed("other", "A", "3.3.3.3")
	api.seed("home", "AAAA", "2001:db8::1")

	sess := newTestSession(t, api, "home", "www", "@")

	r := New(WithLogger(testLogger()))
	result, err := r.Update(context.Background(), sess, "10.0.0.5", "")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if result.UpdatesRequired != 2 {
		t.Errorf("UpdatesRequired = %d, want 2", result.UpdatesRequired)
	}
	if result.AddsRequired != 0 {
		t.Errorf("AddsRequired = %d, want 0", result.AddsRequired)
	}

	updates := api.callsOf(namesilo.OpUpdateRecord)
	if len(updates) != 2 {
		t.Fatalf("UpdateRecord calls = %d, want 2", len(updates))
	}
	want := map[string]string{"rrid": homeID, "rrhost": "home", "rrvalue": "10.0.0.5", "rrttl": "3600"}
	if diff := cmp.Diff(want, updates[0].params); diff != "" {
		t.Errorf("first UpdateRecord params mismatch (-want +got):\n%s", diff)
	}
	if got := updates[1].params["rrhost"]; got != "" {
		t.Errorf("bare domain rrhost = %q, want empty", got)
	}

	values := api.valuesOf("A")
	if values["other.example.com"] != "3.3.3.3" {
		t.Error("undeclared host must not be touched")
	}
	for _, host := range []string{"home.example.com", "www.example.com", "example.com"} {
		if values[host] != "10.0.0.5" {
			t.Errorf("%s = %q, want 10.0.0.5", host, values[host])
		}
	}
	if api.valuesOf("AAAA")["home.example.com"] != "2001:db8::1" {
		t.Error("record of another type must not be touched")
	}

	wantChanges := []string{
		"Updated home.example.com A from 1.1.1.1 to 10.0.0.5",
		"Updated example.com A from 2.2.2.2 to 10.0.0.5",
	}
	if diff := cmp.Diff(wantChanges, result.Changes); diff != "" {
		t.Errorf("Changes mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdate_Idempotent(t *testing.T) {
	api := newFakeAPI("example.com")
	api.seed("home", "A", "1.1.1.1")
	api.seed("www", "A", "1.1.1.1")

	r := New(WithLogger(testLogger()))

	first, err := r.Update(context.Background(), newTestSession(t, api, "home", "www", "new"), "10.0.0.5", "")
	if err != nil {
		t.Fatalf("first Update() error = %v", err)
	}
	if first.UpdatesRequired != 2 || first.AddsRequired != 1 {
		t.Fatalf("first run required %d/%d, want 2/1", first.UpdatesRequired, first.AddsRequired)
	}

	before := api.mutatingCalls()
	second, err := r.Update(context.Background(), newTestSession(t, api, "home", "www", "new"), "10.0.0.5", "")
	if err != nil {
		t.Fatalf("second Update() error = %v", err)
	}
	if second.UpdatesRequired != 0 || second.AddsRequired != 0 {
		t.Errorf("second run required %d/%d, want 0/0", second.UpdatesRequired, second.AddsRequired)
	}
	if api.mutatingCalls() != before {
		t.Error("second run issued mutating calls")
	}
	if len(second.Changes) != 0 {
		t.Errorf("second run Changes = %v, want none", second.Changes)
	}
}

func TestUpdate_NonCanonicalAddressIsIdempotent(t *testing.T) {
	api := newFakeAPI("example.com")
	api.seed("home", "AAAA", "2001:db8::1")

	r := New(WithLogger(testLogger()))
	result, err := r.Update(context.Background(), newTestSession(t, api, "home"), "2001:DB8:0::1", "")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if result.UpdatesRequired != 0 || result.AddsRequired != 0 {
		t.Errorf("required %d/%d, want 0/0", result.UpdatesRequired, result.AddsRequired)
	}
	if api.mutatingCalls() != 0 {
		t.Error("equivalent address issued mutating calls")
	}
}

func TestUpdate_PartialFailureIsolation(t *testing.T) {
	api := newFakeAPI("example.com")
	failID := api.seed("a", "A", "1.1.1.1")
	api.seed("b", "A", "1.1.1.1")
	api.idErr[failID] = &namesilo.APIError{Operation: namesilo.OpUpdateRecord, Code: "280", Detail: "invalid"}

	sess := newTestSession(t, api, "a", "b")

	r := New(WithLogger(testLogger()))
	result, err := r.Update(context.Background(), sess, "10.0.0.5", "")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if got := len(api.callsOf(namesilo.OpUpdateRecord)); got != 2 {
		t.Errorf("UpdateRecord calls = %d, want 2", got)
	}
	if result.FailedCount() != 1 {
		t.Errorf("FailedCount() = %d, want 1", result.FailedCount())
	}
	if got := len(result.Updated()); got != 1 {
		t.Errorf("Updated() = %d, want 1", got)
	}

	failed := result.Failed()[0]
	if failed.Hostname != "a.example.com" {
		t.Errorf("failed host = %q, want a.example.com", failed.Hostname)
	}
	if failed.ErrorKind != KindAPI {
		t.Errorf("failed kind = %v, want api", failed.ErrorKind)
	}

	if diff := cmp.Diff([]string{"Updated b.example.com A from 1.1.1.1 to 10.0.0.5"}, result.Changes); diff != "" {
		t.Errorf("Changes mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdate_AddFailureContinues(t *testing.T) {
	api := newFakeAPI("example.com")
	api.hostErr["a"] = &namesilo.TransportError{Operation: namesilo.OpAddRecord, StatusCode: 502}

	sess := newTestSession(t, api, "a", "b")

	r := New(WithLogger(testLogger()))
	result, err := r.Update(context.Background(), sess, "10.0.0.5", "")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if got := len(api.callsOf(namesilo.OpAddRecord)); got != 2 {
		t.Errorf("AddRecord calls = %d, want 2", got)
	}
	if result.FailedCount() != 1 || result.Failed()[0].ErrorKind != KindTransport {
		t.Errorf("Failed() = %v, want one transport failure", result.Failed())
	}
	if got := len(result.Added()); got != 1 {
		t.Errorf("Added() = %d, want 1", got)
	}
}

func TestUpdate_AddTriggersRefresh(t *testing.T) {
	api := newFakeAPI("example.com")
	sess := newTestSession(t, api, "a", "b")
	listsBefore := len(api.callsOf(namesilo.OpListRecords))

	r := New(WithLogger(testLogger()))
	if _, err := r.Update(context.Background(), sess, "10.0.0.5", ""); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if got := len(api.callsOf(namesilo.OpListRecords)) - listsBefore; got != 2 {
		t.Errorf("refreshes after adds = %d, want 2", got)
	}

	plan := ComputePlan(sess.Records(), sess.Hosts(), "10.0.0.5", RecordTypeA)
	if !plan.Empty() {
		t.Errorf("plan after adds = %+v, want empty", plan)
	}
}

func TestUpdate_RefreshFailureAfterAdd(t *testing.T) {
	api := newFakeAPI("example.com")
	sess := newTestSession(t, api, "a")
	api.opErr[namesilo.OpListRecords] = &namesilo.TransportError{Operation: namesilo.OpListRecords, Err: errors.New("connection reset")}

	r := New(WithLogger(testLogger()))
	result, err := r.Update(context.Background(), sess, "10.0.0.5", "")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if got := len(result.Added()); got != 1 {
		t.Errorf("Added() = %d, want 1", got)
	}
	failed := result.Failed()
	if len(failed) != 1 || failed[0].Type != ActionRefresh {
		t.Fatalf("Failed() = %v, want one refresh failure", failed)
	}
	if failed[0].ErrorKind != KindTransport {
		t.Errorf("refresh failure kind = %v, want transport", failed[0].ErrorKind)
	}
	if len(sess.Records()) != 0 {
		t.Error("failed refresh must keep the previous snapshot")
	}
}

func TestUpdate_ClassificationError(t *testing.T) {
	api := newFakeAPI("example.com")
	api.seed("home", "A", "1.1.1.1")
	sess := newTestSession(t, api, "home")
	before := api.callCount()

	r := New(WithLogger(testLogger()))
	result, err := r.Update(context.Background(), sess, "not-an-ip", "")

	var classErr *ClassificationError
	if !errors.As(err, &classErr) {
		t.Fatalf("Update() error = %v, want *ClassificationError", err)
	}
	if result != nil {
		t.Error("Update() result should be nil on classification failure")
	}
	if api.callCount() != before {
		t.Error("classification failure must not call the API")
	}
}

func TestUpdate_ExplicitType(t *testing.T) {
	api := newFakeAPI("example.com")
	id := api.seed("alias", "CNAME", "old.example.net")
	sess := newTestSession(t, api, "alias")

	r := New(WithLogger(testLogger()), WithConfig(Config{TTL: 300}))
	result, err := r.Update(context.Background(), sess, "new.example.net", RecordTypeCNAME)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if result.UpdatesRequired != 1 {
		t.Fatalf("UpdatesRequired = %d, want 1", result.UpdatesRequired)
	}

	call := api.callsOf(namesilo.OpUpdateRecord)[0]
	if call.params["rrid"] != id || call.params["rrttl"] != "300" {
		t.Errorf("UpdateRecord params = %v", call.params)
	}
}

func TestUpdate_DryRun(t *testing.T) {
	api := newFakeAPI("example.com")
	api.seed("home", "A", "1.1.1.1")
	sess := newTestSession(t, api, "home", "www")
	listsBefore := len(api.callsOf(namesilo.OpListRecords))

	r := New(WithLogger(testLogger()), WithConfig(Config{TTL: DefaultTTL, DryRun: true}))
	result, err := r.Update(context.Background(), sess, "10.0.0.5", "")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if api.mutatingCalls() != 0 {
		t.Errorf("dry-run issued %d mutating calls", api.mutatingCalls())
	}
	if got := len(api.callsOf(namesilo.OpListRecords)); got != listsBefore {
		t.Error("dry-run must not refresh")
	}
	if !result.DryRun {
		t.Error("result should be marked DryRun")
	}
	if len(result.Actions) != 2 {
		t.Errorf("planned actions = %d, want 2", len(result.Actions))
	}
	for _, a := range result.Actions {
		if !a.DryRun {
			t.Errorf("action %s not marked dry-run", a)
		}
	}
	if len(result.Changes) != 0 {
		t.Errorf("dry-run Changes = %v, want none", result.Changes)
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name       string
		filter     Filter
		wantLeft   []string
		wantDelete int
	}{
		{
			name:       "host and type",
			filter:     Filter{}.WithHost("home").WithType(RecordTypeA),
			wantLeft:   []string{"example.com", "home.example.com"},
			wantDelete: 1,
		},
		{
			name:       "value",
			filter:     Filter{}.WithValue("2.2.2.2"),
			wantLeft:   []string{"home.example.com", "home.example.com"},
			wantDelete: 1,
		},
		{
			name:       "bare domain",
			filter:     Filter{}.WithHost("@"),
			wantLeft:   []string{"home.example.com", "home.example.com"},
			wantDelete: 1,
		},
		{
			name:       "empty filter deletes all",
			filter:     Filter{},
			wantLeft:   nil,
			wantDelete: 3,
		},
		{
			name:       "no match",
			filter:     Filter{}.WithHost("nothing"),
			wantLeft:   []string{"home.example.com", "example.com", "home.example.com"},
			wantDelete: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI("example.com")
			api.seed("home", "A", "1.1.1.1")
			api.seed("", "A", "2.2.2.2")
			api.seed("home", "TXT", "hello")
			sess := newTestSession(t, api, "home")

			r := New(WithLogger(testLogger()))
			result := r.Delete(context.Background(), sess, tt.filter)

			if result.DeletesRequired != tt.wantDelete {
				t.Errorf("DeletesRequired = %d, want %d", result.DeletesRequired, tt.wantDelete)
			}
			if got := len(api.callsOf(namesilo.OpDeleteRecord)); got != tt.wantDelete {
				t.Errorf("DeleteRecord calls = %d, want %d", got, tt.wantDelete)
			}
			if result.HasErrors() {
				t.Errorf("unexpected failures: %v", result.Failed())
			}

			var left []string
			for _, rec := range sess.Records() {
				left = append(left, rec.Host)
			}
			if diff := cmp.Diff(tt.wantLeft, left); diff != "" {
				t.Errorf("remaining hosts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDelete_FailureCountedAndRefreshedOnce(t *testing.T) {
	api := newFakeAPI("example.com")
	failID := api.seed("a", "A", "1.1.1.1")
	api.seed("b", "A", "1.1.1.1")
	api.idErr[failID] = &namesilo.APIError{Operation: namesilo.OpDeleteRecord, Code: "280"}

	sess := newTestSession(t, api, "a")
	listsBefore := len(api.callsOf(namesilo.OpListRecords))

	r := New(WithLogger(testLogger()))
	result := r.Delete(context.Background(), sess, Filter{})

	if result.FailedCount() != 1 {
		t.Errorf("FailedCount() = %d, want 1", result.FailedCount())
	}
	if got := len(result.Deleted()); got != 1 {
		t.Errorf("Deleted() = %d, want 1", got)
	}
	if got := len(api.callsOf(namesilo.OpListRecords)) - listsBefore; got != 1 {
		t.Errorf("refreshes = %d, want 1", got)
	}
	if diff := cmp.Diff([]string{"Deleted b.example.com A 1.1.1.1"}, result.Changes); diff != "" {
		t.Errorf("Changes mismatch (-want +got):\n%s", diff)
	}
}

func TestDelete_DryRun(t *testing.T) {
	api := newFakeAPI("example.com")
	api.seed("a", "A", "1.1.1.1")
	sess := newTestSession(t, api, "a")
	listsBefore := len(api.callsOf(namesilo.OpListRecords))

	r := New(WithLogger(testLogger()), WithConfig(Config{TTL: DefaultTTL, DryRun: true}))
	result := r.Delete(context.Background(), sess, Filter{})

	if api.mutatingCalls() != 0 {
		t.Error("dry-run issued mutating calls")
	}
	if len(api.callsOf(namesilo.OpListRecords)) != listsBefore {
		t.Error("dry-run must not refresh")
	}
	if result.DeletesRequired != 1 || len(result.Changes) != 0 {
		t.Errorf("DeletesRequired = %d, Changes = %v", result.DeletesRequired, result.Changes)
	}
}
