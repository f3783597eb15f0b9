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

// Package assembler turns Site Building Blocks into final Conservation
// Site polygons: ProtoSite clustering followed by the per-ProtoSite
// chop/reassemble pipeline of SPEC_FULL.md §4.E.
package assembler

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ctessum/geom"
	"github.com/natheritage/ecs/geo"
	"github.com/natheritage/ecs/model"
	"github.com/natheritage/ecs/modprep"
)

// Fixed parameters from SPEC_FULL.md §4.E.
const (
	clusterDist    = 500.0
	smthDist       = 2000.0
	buffDist       = 50.0
	hydroPerCov    = 100.0
	hydroElimDist  = 10.0
	fragSearchDist = 0.0
	siteSearchDist = 20.0
	siteSmthDist   = 10.0
	patchDist      = 2.5 * siteSearchDist
)

// Input bundles everything a delineation run assembles Sites from.
type Input struct {
	SBBs       []model.SBB
	PFs        []model.PF
	Hydro      []modprep.Feature
	Transport  []modprep.Feature
	Exclusion  []modprep.Feature
	SiteType   model.SiteType
	// Workers caps the number of ProtoSites processed concurrently; 0
	// means runtime.GOMAXPROCS(-1).
	Workers int
}

// Assemble builds ProtoSites from in.SBBs, then runs the chop/reassemble
// pipeline over each ProtoSite concurrently, recording per-ProtoSite
// failures in failures rather than aborting the run (spec.md §7).
func Assemble(ws *model.Workspace, in Input, failures *model.FailureReport) []model.Site {
	sbbGeoms := make([]geom.Polygon, len(in.SBBs))
	for i, s := range in.SBBs {
		sbbGeoms[i] = s.Geom
	}
	protos, err := geo.ShrinkWrap(sbbGeoms, clusterDist, smthDist)
	if err != nil {
		ws.Log.WithError(err).Error("ProtoSite clustering failed")
		return nil
	}
	for i := range protos {
		protos[i] = geo.Generalize(protos[i], 0.1)
	}

	nprocs := in.Workers
	if nprocs <= 0 {
		nprocs = runtime.GOMAXPROCS(-1)
	}

	type result struct {
		sites []model.Site
		err   error
		index int
	}

	indexChan := make(chan int)
	resultChan := make(chan result, len(protos))

	for p := 0; p < nprocs; p++ {
		go func() {
			for i := range indexChan {
				sites, err := processProtoSite(ws, i, protos[i], in)
				resultChan <- result{sites: sites, err: err, index: i}
			}
		}()
	}
	go func() {
		for i := range protos {
			indexChan <- i
		}
		close(indexChan)
	}()

	var out []model.Site
	for range protos {
		r := <-resultChan
		if r.err != nil {
			ws.Log.WithFields(logrus.Fields{"protosite": r.index}).WithError(r.err).Warn("ProtoSite assembly failed")
			failures.AddProtoSite(fmt.Errorf("protosite %d: %w", r.index, r.err))
			continue
		}
		out = append(out, r.sites...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SiteID < out[j].SiteID })
	return out
}

// sbbsIn returns the SBBs whose geometry intersects ps.
func sbbsIn(sbbs []model.SBB, ps geom.Polygon) []model.SBB {
	var out []model.SBB
	for _, s := range sbbs {
		if geo.Intersects(s.Geom, ps) {
			out = append(out, s)
		}
	}
	return out
}

// pfsIn returns the PFs whose geometry intersects ps.
func pfsIn(pfs []model.PF, ps geom.Polygon) []model.PF {
	var out []model.PF
	for _, pf := range pfs {
		if geo.Intersects(pf.Geom, ps) {
			out = append(out, pf)
		}
	}
	return out
}

func featsIntersecting(feats []modprep.Feature, region geom.Polygonal) []geom.Polygon {
	var out []geom.Polygon
	for _, f := range feats {
		if geo.Intersects(f.Geom, region) {
			out = append(out, f.Geom)
		}
	}
	return out
}

func clipAll(ws *model.Workspace, polys []geom.Polygon, clip geom.Polygonal) []geom.Polygon {
	if len(polys) == 0 {
		return nil
	}
	var out []geom.Polygon
	for _, p := range polys {
		out = append(out, geo.CleanClip(ws, p, clip)...)
	}
	return out
}

// processProtoSite runs SPEC_FULL.md §4.E step 2 (a)-(j) for a single
// ProtoSite and returns the finished Site polygons it produces.
func processProtoSite(ws *model.Workspace, psIndex int, ps geom.Polygon, in Input) ([]model.Site, error) {
	sbbs := sbbsIn(in.SBBs, ps)
	pfs := pfsIn(in.PFs, ps)
	if len(pfs) == 0 {
		return nil, nil
	}

	tmpBuff, err := geo.Buffer(ps, buffDist)
	if err != nil {
		return nil, fmt.Errorf("buffering ProtoSite: %w", err)
	}

	// (a)
	clippedHydro := clipAll(ws, featsIntersecting(in.Hydro, tmpBuff), tmpBuff)
	clippedTransport := clipAll(ws, featsIntersecting(in.Transport, tmpBuff), tmpBuff)
	clippedExclusion := clipAll(ws, featsIntersecting(in.Exclusion, tmpBuff), tmpBuff)

	// (b)
	sbbGeoms := sbbGeomsOf(sbbs)
	var hydroErase []geom.Polygon
	if len(clippedHydro) > 0 {
		hydroDiss := geo.Dissolve(clippedHydro)
		hydroRtn := modprep.CullEraseFeats(geo.ExplodeMultipart(hydroDiss), sbbGeoms, hydroPerCov)
		if len(hydroRtn) > 0 {
			closed, err := geo.Coalesce(hydroRtn, -hydroElimDist)
			if err != nil {
				return nil, fmt.Errorf("closing hydro: %w", err)
			}
			reopened, err := geo.Coalesce([]geom.Polygon{closed}, hydroElimDist)
			if err != nil {
				return nil, fmt.Errorf("reopening hydro: %w", err)
			}
			hydroErase = geo.CleanErase(ws, reopened, geo.Dissolve(pfGeomsOf(pfs)))
		}
	}

	// (c)
	var mergeSet []geom.Polygon
	if in.SiteType == model.SiteAHZ {
		mergeSet = hydroErase
	} else {
		mergeSet = append(mergeSet, clippedExclusion...)
		mergeSet = append(mergeSet, clippedTransport...)
		mergeSet = append(mergeSet, hydroErase...)
	}
	var coalErase geom.Polygon
	if len(mergeSet) > 0 {
		coalErase, err = geo.Coalesce(mergeSet, 0.5)
		if err != nil {
			return nil, fmt.Errorf("coalescing erasers: %w", err)
		}
	}

	// (d) ChopMod
	sbbClusters, anyErased, err := chopMod(ws, pfs, sbbs, coalErase)
	if err != nil {
		return nil, fmt.Errorf("ChopMod: %w", err)
	}
	if anyErased {
		ws.Log.Warn("a PF was entirely erased during ChopMod; continuing")
	}
	if len(sbbClusters) == 0 {
		return nil, nil
	}

	// (e)
	sbbErase := geo.CleanErase(ws, coalErase, geo.Dissolve(sbbClusters))
	var finErase geom.Polygon
	if in.SiteType == model.SiteAHZ {
		finErase = geo.Dissolve(sbbErase)
	} else {
		finErase = geo.Dissolve(append(append([]geom.Polygon{}, sbbErase...), clippedExclusion...))
	}

	// (f)
	pfRtnClipped := clipAll(ws, pfGeomsOf(pfs), geo.Dissolve(sbbClusters))

	// (g) split sites
	psFrags := geo.CleanErase(ws, ps, finErase)
	psRtn := geo.CullFrags(psFrags, geo.Dissolve(pfRtnClipped), fragSearchDist)
	if len(psRtn) == 0 {
		return nil, nil
	}

	// (h)
	var tmpSSGrp []geom.Polygon
	for _, ss := range psRtn {
		selectedClusters := selectIntersecting(sbbClusters, ss)
		selectedPFs := selectIntersecting(pfRtnClipped, ss)
		if len(selectedClusters) == 0 {
			continue
		}
		csShrink, err := geo.ShrinkWrap(selectedClusters, clusterDist, smthDist)
		if err != nil {
			return nil, fmt.Errorf("ShrinkWrap split site: %w", err)
		}
		siteFrags := geo.CleanErase(ws, geo.Dissolve(csShrink), finErase)
		ssBnd := geo.CullFrags(siteFrags, geo.Dissolve(selectedPFs), fragSearchDist)
		if len(ssBnd) == 0 {
			continue
		}
		smoothBnd, err := geo.Coalesce(ssBnd, siteSmthDist)
		if err != nil {
			return nil, fmt.Errorf("smoothing split site: %w", err)
		}
		tmpSSGrp = append(tmpSSGrp, smoothBnd)
	}
	if len(tmpSSGrp) == 0 {
		return nil, nil
	}

	// (i)
	splitSites := geo.ExplodeMultipart(geo.Dissolve(tmpSSGrp))
	if len(splitSites) > 1 {
		splitSites = gapPatch(ws, splitSites)
	}

	// (j)
	final, err := geo.ShrinkWrap(splitSites, 1, 2.5*siteSmthDist)
	if err != nil {
		return nil, fmt.Errorf("final ShrinkWrap: %w", err)
	}
	var sites []model.Site
	for i, f := range final {
		if in.SiteType != model.SiteAHZ {
			f = geo.Dissolve(geo.CleanErase(ws, f, geo.Dissolve(clippedExclusion)))
		}
		f = geo.EliminateHoles(f, 99.99, true)
		f = geo.Generalize(f, 0.5)
		sites = append(sites, model.Site{
			SiteID:   fmt.Sprintf("PS%d-%d", psIndex, i),
			SiteType: in.SiteType,
			Geom:     f,
		})
	}
	return sites, nil
}

func sbbGeomsOf(sbbs []model.SBB) []geom.Polygon {
	out := make([]geom.Polygon, len(sbbs))
	for i, s := range sbbs {
		out[i] = s.Geom
	}
	return out
}

func pfGeomsOf(pfs []model.PF) []geom.Polygon {
	out := make([]geom.Polygon, len(pfs))
	for i, p := range pfs {
		out[i] = p.Geom
	}
	return out
}

func selectIntersecting(polys []geom.Polygon, ref geom.Polygonal) []geom.Polygon {
	var out []geom.Polygon
	for _, p := range polys {
		if geo.Intersects(p, ref) {
			out = append(out, p)
		}
	}
	return out
}
