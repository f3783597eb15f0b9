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

// Package pipeline wires the geo/sbb/assembler/stream/prioritize/store
// packages into the two top-level runs SPEC_FULL.md §6 names:
// delineation (PF -> Conservation Site) and prioritization (Site/EO ->
// ECS tiers and portfolio).
package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ctessum/geom"
	"github.com/natheritage/ecs/assembler"
	"github.com/natheritage/ecs/config"
	"github.com/natheritage/ecs/geo"
	"github.com/natheritage/ecs/model"
	"github.com/natheritage/ecs/modprep"
	"github.com/natheritage/ecs/sbb"
	"github.com/natheritage/ecs/store"
	"github.com/natheritage/ecs/stream"
)

// streamMergeSearchDist and streamMergeSmthDist implement spec.md line 141's
// final clause ("dissolve adjacent sites, smooth by 50 m PAEK") as a single
// cross-PF pass over every traced SCS/SCU geometry, mirroring how the
// assembler merges SBB clusters with geo.ShrinkWrap. searchDist 0 merges
// only features that touch or overlap, matching geo.CullFrags' convention;
// streamHoleFillM2 is spec.md's "fill holes <1 ha contained", in square meters.
const (
	streamMergeSearchDist = 0.0
	streamMergeSmthDist   = 50.0
	streamHoleFillM2      = 10000.0
)

// tracedStream is one PF's stream-traced-and-buffered geometry, held until
// the cross-PF adjacency merge runs.
type tracedStream struct {
	sfid  string
	sname string
	geom  geom.Polygon
}

// DelineationInput bundles every input layer a delineation run needs.
type DelineationInput struct {
	PFs         []model.PF
	NWI         []sbb.NWIFeature
	Hydro       []modprep.Feature
	Transport   []modprep.Feature
	Exclusion   []modprep.Feature
	Flowlines   []stream.Flowline
	Waterbodies []stream.Waterbody
	Catchments  []stream.Catchment
	Dams        []stream.Barrier
	Network     stream.Network
}

// RunDelineation implements SPEC_FULL.md §6's delineation entry point: it
// partitions PFs by RULE into the three architecturally distinct paths
// (numbered-rule/AHZ through sbb+assembler, SCS1/SCS2 through stream
// tracing, KCS/MACS passed through as single-PF sites since neither
// carries a construction rule this pack's spec describes), and returns
// the combined Conservation Sites plus the run's FailureReport.
func RunDelineation(ws *model.Workspace, in DelineationInput, cfg *config.Config) ([]model.Site, *model.FailureReport) {
	failures := model.NewFailureReport()

	var ruledPFs, streamPFs, passthroughPFs []model.PF
	for _, pf := range in.PFs {
		switch {
		case pf.Rule == "SCS1" || pf.Rule == "SCS2":
			streamPFs = append(streamPFs, pf)
		case pf.Rule == "KCS" || pf.Rule == "MACS":
			passthroughPFs = append(passthroughPFs, pf)
		default:
			ruledPFs = append(ruledPFs, pf)
		}
	}

	var sites []model.Site

	sbbs := sbb.BuildAll(ws, ruledPFs, in.NWI, failures)
	ahzPFs, terrestrialPFs := splitAHZ(ruledPFs)
	ahzSBBs, terrestrialSBBs := splitSBBsByPF(sbbs, ahzPFs, terrestrialPFs)

	if len(terrestrialSBBs) > 0 {
		sites = append(sites, assembler.Assemble(ws, assembler.Input{
			SBBs: terrestrialSBBs, PFs: terrestrialPFs,
			Hydro: in.Hydro, Transport: in.Transport, Exclusion: in.Exclusion,
			SiteType: model.SiteTerrestrial, Workers: cfg.Workers,
		}, failures)...)
	}
	if len(ahzSBBs) > 0 {
		sites = append(sites, assembler.Assemble(ws, assembler.Input{
			SBBs: ahzSBBs, PFs: ahzPFs,
			Hydro: in.Hydro, Transport: in.Transport, Exclusion: in.Exclusion,
			SiteType: model.SiteAHZ, Workers: cfg.Workers,
		}, failures)...)
	}

	if len(streamPFs) > 0 && in.Network == nil {
		ws.Log.Warn("no stream network supplied; skipping all SCS/SCU PFs")
		for _, pf := range streamPFs {
			failures.AddPF(pf.SFID)
		}
		streamPFs = nil
	}
	var tracedSCS, tracedSCU []tracedStream
	for _, pf := range streamPFs {
		siteType := model.SiteSCS
		if pf.Buffer != nil && *pf.Buffer == 5 {
			siteType = model.SiteSCU
		}
		g, err := stream.Build(ws, in.Network, pf, siteType, in.Flowlines, in.Waterbodies, in.Catchments, in.Dams)
		if err != nil {
			ws.Log.WithFields(logrus.Fields{"sfid": pf.SFID}).Warnf("stream trace failed: %v", err)
			failures.AddPF(pf.SFID)
			continue
		}
		traced := tracedStream{sfid: pf.SFID, sname: pf.SName, geom: g}
		if siteType == model.SiteSCU {
			tracedSCU = append(tracedSCU, traced)
		} else {
			tracedSCS = append(tracedSCS, traced)
		}
	}
	merged, err := mergeAdjacentStreamSites(tracedSCS, model.SiteSCS)
	if err != nil {
		return nil, failures
	}
	sites = append(sites, merged...)
	merged, err = mergeAdjacentStreamSites(tracedSCU, model.SiteSCU)
	if err != nil {
		return nil, failures
	}
	sites = append(sites, merged...)

	for _, pf := range passthroughPFs {
		siteType := model.SiteMACS
		if pf.Rule == "KCS" {
			siteType = model.SiteCave
		}
		sites = append(sites, model.Site{
			SiteID:      pf.SFID,
			SiteName:    pf.SName,
			SiteType:    siteType,
			SourceSFIDs: []string{pf.SFID},
			Geom:        pf.Geom,
		})
	}

	ws.Log.WithFields(logrus.Fields{"sites": len(sites), "pf_failures": len(failures.SFIDs)}).Info("delineation complete")
	return sites, failures
}

// mergeAdjacentStreamSites implements spec.md line 141's cross-PF step:
// after every SCS/SCU PF is traced and buffered independently (and
// dissolved within its own catchments by stream.Build), sites from
// different PFs that are now adjacent or overlapping must be dissolved
// into one another, smoothed, and have small contained holes filled —
// mirroring _examples/original_source/CreateConSites.py's DelinSite_scs,
// which batches every traced feature into one in_Polys collection and runs
// a single combined dissolve across the whole batch before appending to
// out_ConSites. Each resulting merged polygon carries the SFIDs of every
// input trace it absorbed.
func mergeAdjacentStreamSites(traces []tracedStream, siteType model.SiteType) ([]model.Site, error) {
	if len(traces) == 0 {
		return nil, nil
	}
	polys := make([]geom.Polygon, len(traces))
	for i, t := range traces {
		polys[i] = t.geom
	}
	merged, err := geo.ShrinkWrap(polys, streamMergeSearchDist, streamMergeSmthDist)
	if err != nil {
		return nil, fmt.Errorf("pipeline: merging stream-traced sites: %v", err)
	}

	sites := make([]model.Site, len(merged))
	for i, f := range merged {
		f = geo.EliminateHoles(f, streamHoleFillM2, false)

		var sfids, snames []string
		for _, t := range traces {
			if geo.Intersects(t.geom, f) {
				sfids = append(sfids, t.sfid)
				snames = append(snames, t.sname)
			}
		}
		sort.Strings(sfids)
		sort.Strings(snames)

		sites[i] = model.Site{
			SiteID:      fmt.Sprintf("%s%d", siteType, i+1),
			SiteName:    strings.Join(snames, "; "),
			SiteType:    siteType,
			SourceSFIDs: sfids,
			Geom:        f,
		}
	}
	return sites, nil
}

func splitAHZ(pfs []model.PF) (ahz, terrestrial []model.PF) {
	for _, pf := range pfs {
		if pf.Rule == "AHZ" {
			ahz = append(ahz, pf)
		} else {
			terrestrial = append(terrestrial, pf)
		}
	}
	return ahz, terrestrial
}

func splitSBBsByPF(sbbs []model.SBB, ahzPFs, terrestrialPFs []model.PF) (ahzSBBs, terrestrialSBBs []model.SBB) {
	ahzIDs := sfidSet(ahzPFs)
	for _, s := range sbbs {
		if ahzIDs[s.SFID] {
			ahzSBBs = append(ahzSBBs, s)
		} else {
			terrestrialSBBs = append(terrestrialSBBs, s)
		}
	}
	return ahzSBBs, terrestrialSBBs
}

func sfidSet(pfs []model.PF) map[string]bool {
	out := make(map[string]bool, len(pfs))
	for _, pf := range pfs {
		out[pf.SFID] = true
	}
	return out
}

// WriteResults writes a delineation run's Sites and FailureReport to
// cfg.OutputDir, the shapefile/workbook export SPEC_FULL.md §6 names as
// the delineator's output.
func WriteResults(cfg *config.Config, sites []model.Site, failures *model.FailureReport) error {
	ptrs := make([]*model.Site, len(sites))
	for i := range sites {
		ptrs[i] = &sites[i]
	}
	if err := store.WriteSites(cfg.OutputDir+"/sites.shp", ptrs); err != nil {
		return fmt.Errorf("pipeline: writing sites: %v", err)
	}
	if !failures.Empty() {
		if err := store.WriteFailureWorkbook(cfg.OutputDir+"/delineation_failures.xlsx", failures); err != nil {
			return fmt.Errorf("pipeline: writing failure workbook: %v", err)
		}
	}
	return nil
}
