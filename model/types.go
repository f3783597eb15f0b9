/*
Copyright © 2013-2026 the ECS Tools authors.
This file is part of ECS Tools.

ECS Tools is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ECS Tools is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ECS Tools.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package model holds the typed records shared across the delineation and
// prioritization pipelines: Procedural Features, Site Building Blocks,
// ProtoSites, Conservation Sites, Element Occurrences, and per-element
// summary rows, plus the Workspace handle threaded through every stage.
//
// Intermediate results are modeled as these typed records rather than as
// shared feature-class rows read back by field name; a computed attribute
// gets its own struct field, never a late-bound column lookup.
package model

import (
	"time"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
)

// SiteType enumerates the Conservation Site classes this package produces.
type SiteType string

// Site classes recognized by the delineator and prioritizer.
const (
	SiteTerrestrial SiteType = "Conservation Site"
	SiteAHZ         SiteType = "Anthropogenic Habitat Zone"
	SiteSCS         SiteType = "SCS"
	SiteSCU         SiteType = "SCU"
	SiteCave        SiteType = "Cave Site"
	SiteMACS        SiteType = "Migratory Animal Conservation Site"
)

// Tier is one of the five discrete priority tiers a finalized EO carries.
type Tier string

// Tiers, ordered from most to least essential.
const (
	TierIrreplaceable Tier = "Irreplaceable"
	TierCritical      Tier = "Critical"
	TierVital         Tier = "Vital"
	TierHighPriority  Tier = "High Priority"
	TierGeneral       Tier = "General"
	TierUnassigned    Tier = "Unassigned"
)

// Exclusion is the viability/eligibility classification of an EO.
type Exclusion string

// Exclusion classifications an EO can carry after the Attributor runs.
const (
	ExclusionKeep            Exclusion = "Keep"
	ExclusionNotViable       Exclusion = "Not viable"
	ExclusionOldObservation  Exclusion = "Old Observation"
	ExclusionExcludedElement Exclusion = "Excluded Element"
	ExclusionErrorCheck      Exclusion = "Error Check Needed"
)

// Override values recognized on an EO or Site; see spec invariant on
// OVERRIDE semantics.
const (
	OverrideExclude     = -1
	OverrideForce       = 1
	OverrideMidSelection = -2
	OverrideNone        = 0
)

// PF is a Procedural Feature: the atomic input polygon representing a
// species or community occurrence observation.
type PF struct {
	SFID   string
	SFEOID string
	ELCode string
	SName  string

	// Rule is the raw rule string as supplied ("1".."15", "AHZ", "KCS",
	// "MACS", "SCS1", "SCS2").
	Rule string

	// Buffer is the optional supplied buffer override, in meters. Nil
	// means "not supplied".
	Buffer *float64

	EORank      string
	BiodivGRank string
	BiodivSRank string
	RndGRank    string
	FedStat     string
	SProt       string
	EOLastObs   time.Time
	Endemic     bool
	ElementEOs  int

	Geom geom.Polygon
}

// SBB is a Site Building Block: the per-PF polygon produced by the
// rule-specific construction in SPEC_FULL.md §4.C.
type SBB struct {
	SFID      string
	IntRule   int
	FltBuffer float64
	Geom      geom.Polygon
}

// ProtoSite is a smoothed cluster of nearby SBBs with no identity of its
// own; it is entirely rewritten by the Site Assembler.
type ProtoSite struct {
	Geom geom.Polygon

	// SBBIDs are the SFIDs of the SBBs clustered into this ProtoSite.
	SBBIDs []string
}

// Site is a final Conservation Site polygon, before or after the ECS
// prioritization pass has annotated it.
type Site struct {
	SiteID   string
	SiteName string
	SiteType SiteType
	BRank    string

	// SourceSFIDs lists the Procedural Features a stream-traced Site was
	// dissolved from when adjacent/overlapping traces merged (spec.md
	// §4.F step 5). KCS/MACS Sites built directly from a PF carry a single
	// entry, that PF's SFID; Sites from the Site Assembler leave it empty.
	SourceSFIDs []string

	CSConsValue float64
	CSAreaHA    float64
	BMIScore    float64
	ECSTier     Tier
	Essential   string
	EEOSummary  string
	Portfolio   bool
	Override    int

	Geom geom.Polygon
}

// EO is an Element Occurrence: the dissolved union of all PFs sharing an
// SFEOID.
type EO struct {
	SFEOID      string
	ELCode      string
	NewGRank    string
	ObsYear     int
	Recent      int // 0 = excluded, 1 = update needed, 2 = recent
	EORankNum   int // 1..10, 11 = unrankable
	Exclusion   Exclusion
	PercentMil  float64
	BMIScore    float64
	YsnNAP      bool
	EcoRegions  map[string]bool
	MainEcoReg  string

	Tier       Tier
	FinalRank  int // 1..6
	EEOTier    string
	Essential  string
	Portfolio  bool
	Override   int
	ConsValue  float64

	// ranking scratch fields, recomputed every ranker pass
	RankMil  int
	RankEO   int
	RankYear int
	ChoiceRank int

	PFCount int
	AreaHA  float64

	Geom geom.Polygon
}

// ElementSummary is the one-per-ELCODE rollup row produced during
// prioritization.
type ElementSummary struct {
	ELCode        string
	CountAllEO    int
	CountIneligEO int
	CountEligEO   int
	NumRegions    int
	Target        int
	InitTier      Tier
	TierCounts    map[Tier]int
	Portfolio     int
	Status        string // "Target met", "Target exceeded", "Target not met", "N/A"
}

// Status values an ElementSummary.Status can take.
const (
	StatusTargetMet      = "Target met"
	StatusTargetExceeded = "Target exceeded"
	StatusTargetNotMet   = "Target not met"
	StatusNA             = "N/A"
)

// Workspace is the explicit handle carrying run-scoped state — CRS, snap
// tolerance, scratch directory, and logger — through every pipeline stage,
// in place of the process-wide mutable geometry settings the source
// relies on.
type Workspace struct {
	// CRSName is an identifying label for the input/output projected CRS.
	// Reprojection itself is delegated to the geometry library; this
	// field exists so stages can assert all inputs share one CRS.
	CRSName string

	// SnapTolerance is the configured snap tolerance. No stage reads it;
	// geo's ring repair uses no tolerance.
	SnapTolerance float64

	// ScratchDir is a unique, timestamped directory for this run's
	// intermediate artifacts. Never shared between concurrent runs.
	ScratchDir string

	Log logrus.FieldLogger
}

// NewWorkspace returns a Workspace with a non-nil logger, so callers never
// have to nil-check ws.Log.
func NewWorkspace(scratchDir string) *Workspace {
	return &Workspace{
		ScratchDir: scratchDir,
		Log:        logrus.StandardLogger(),
	}
}

// FailureReport accumulates non-fatal per-item failures across a pipeline
// run, per spec.md §7 ("all per-item failures are non-fatal").
type FailureReport struct {
	// SFIDs records per-PF failures (wetland-rule or SBB-loop failures,
	// stream-trace failures). PFs fully erased by modifiers are logged by
	// the assembler and not recorded here.
	SFIDs []string

	// ProtoSiteErrors records per-ProtoSite assembly failures.
	ProtoSiteErrors []error

	// ElementErrors records per-ELCODE ranking failures.
	ElementErrors map[string]error
}

// NewFailureReport returns an empty report ready to accumulate failures.
func NewFailureReport() *FailureReport {
	return &FailureReport{ElementErrors: make(map[string]error)}
}

// AddPF records a per-PF failure.
func (r *FailureReport) AddPF(sfid string) {
	r.SFIDs = append(r.SFIDs, sfid)
}

// AddProtoSite records a per-ProtoSite failure.
func (r *FailureReport) AddProtoSite(err error) {
	r.ProtoSiteErrors = append(r.ProtoSiteErrors, err)
}

// AddElement records a per-element failure.
func (r *FailureReport) AddElement(elcode string, err error) {
	r.ElementErrors[elcode] = err
}

// Empty reports whether no failures were recorded.
func (r *FailureReport) Empty() bool {
	return len(r.SFIDs) == 0 && len(r.ProtoSiteErrors) == 0 && len(r.ElementErrors) == 0
}
