// Copyright (c) 2025 Citrix Monitor MCP Contributors
// SPDX-License-Identifier: MIT

package client

import (
	"regexp"
	"testing"
)

func TestFiltersJoin(t *testing.T) {
	var f Filters
	f.Addf("CurrentRegistrationState eq '%s'", "Registered")
	f.Addf("CurrentPowerState eq '%s'", "On")

	want := "CurrentRegistrationState eq 'Registered' and CurrentPowerState eq 'On'"
	if got := f.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFiltersIgnoreEmpty(t *testing.T) {
	var f Filters
	f.Add("")
	if !f.Empty() {
		t.Error("Add(\"\") should leave filters empty")
	}

	f.Add("EndDate eq null")
	f.Add("")
	if got := f.String(); got != "EndDate eq null" {
		t.Errorf("String() = %q, want %q", got, "EndDate eq null")
	}
}

func TestFiltersSingleClause(t *testing.T) {
	var f Filters
	f.Add("InMaintenanceMode eq true")
	if got := f.String(); got != "InMaintenanceMode eq true" {
		t.Errorf("String() = %q, want %q", got, "InMaintenanceMode eq true")
	}
	if f.Empty() {
		t.Error("Empty() = true, want false")
	}
}

func TestDaysAgoUTCFormat(t *testing.T) {
	// An OData v4 datetime literal with no fractional seconds
	pattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)
	got := DaysAgoUTC(7)
	if !pattern.MatchString(got) {
		t.Errorf("DaysAgoUTC(7) = %q, want ISO-8601 Zulu timestamp", got)
	}
}
