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

// Package store implements the shapefile and spreadsheet I/O the
// delineation and prioritization pipelines read their inputs from and
// write their results to.
package store

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"

	"github.com/natheritage/ecs/model"
)

// eoLastObsLayouts are the date formats the EO_LAST_OB column has been
// observed to carry, tried in order.
var eoLastObsLayouts = []string{"2006-01-02", "1/2/2006", "20060102"}

// parseDate parses an EO_LAST_OB shapefile column into a time.Time,
// trying each of eoLastObsLayouts in turn.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range eoLastObsLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// pfRecord mirrors the shapefile attribute columns a Procedural Feature
// input carries; shp.Decoder.DecodeRow matches struct fields to DBF field
// names case-insensitively, the same way io.go's EmisRecord does.
type pfRecord struct {
	geom.Geom
	SFID        string
	SFEOID      string
	ELCode      string `shp:"ELCODE"`
	SName       string `shp:"SNAME"`
	Rule        string
	Buffer      float64
	EORank      string
	BiodivGRank string `shp:"BIODIV_GRA"`
	BiodivSRank string `shp:"BIODIV_SRA"`
	RndGRank    string `shp:"RND_GRANK"`
	FedStat     string `shp:"FED_STAT"`
	SProt       string `shp:"SPROT"`
	EOLastObs   string `shp:"EO_LAST_OB"`
	Endemic     string
	ElementEOs  float64 `shp:"ELEMENT_EO"`
}

// ReadPFs reads Procedural Features from a polygon shapefile; a
// non-polygon feature is an error.
// BUFFER is read as a per-feature override when the column is present and
// non-zero; an absent or zero BUFFER leaves model.PF.Buffer nil so
// downstream rule logic falls back to its table default.
func ReadPFs(filename string) ([]model.PF, error) {
	filename = strings.TrimSuffix(filename, ".shp")
	d, err := shp.NewDecoder(filename + ".shp")
	if err != nil {
		return nil, fmt.Errorf("store: opening PF shapefile %q: %v", filename, err)
	}
	defer d.Close()

	var out []model.PF
	for {
		var rec pfRecord
		if ok := d.DecodeRow(&rec); !ok {
			break
		}
		if rec.Geom == nil {
			continue
		}
		poly, ok := rec.Geom.(geom.Polygon)
		if !ok {
			return nil, fmt.Errorf("store: PF %s is not a polygon feature", rec.SFID)
		}
		pf := model.PF{
			SFID:        rec.SFID,
			SFEOID:      rec.SFEOID,
			ELCode:      rec.ELCode,
			SName:       rec.SName,
			Rule:        rec.Rule,
			EORank:      rec.EORank,
			BiodivGRank: rec.BiodivGRank,
			BiodivSRank: rec.BiodivSRank,
			RndGRank:    rec.RndGRank,
			FedStat:     rec.FedStat,
			SProt:       rec.SProt,
			Endemic:     strings.EqualFold(rec.Endemic, "Y") || strings.EqualFold(rec.Endemic, "true"),
			Geom:        poly,
		}
		if t, err := parseDate(rec.EOLastObs); err == nil {
			pf.EOLastObs = t
		}
		if rec.Buffer != 0 && !math.IsNaN(rec.Buffer) {
			b := rec.Buffer
			pf.Buffer = &b
		}
		if !math.IsNaN(rec.ElementEOs) {
			pf.ElementEOs = int(rec.ElementEOs)
		}
		out = append(out, pf)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("store: reading PF shapefile %q: %v", filename, err)
	}
	return out, nil
}

type siteRecord struct {
	geom.Geom
	SiteID   string `shp:"SITEID"`
	SiteName string `shp:"SITENAME"`
	SiteType string `shp:"SITETYPE"`
	SrcSFIDs string `shp:"SRC_SFIDS"`
}

// ReadSites reads back the identity columns of a Site shapefile a prior
// delineate run wrote (WriteSites); tier/portfolio attributes are not
// round-tripped since a prioritize run recomputes them fresh.
func ReadSites(filename string) ([]model.Site, error) {
	filename = strings.TrimSuffix(filename, ".shp")
	d, err := shp.NewDecoder(filename + ".shp")
	if err != nil {
		return nil, fmt.Errorf("store: opening Site shapefile %q: %v", filename, err)
	}
	defer d.Close()

	var out []model.Site
	for {
		var rec siteRecord
		if ok := d.DecodeRow(&rec); !ok {
			break
		}
		poly, ok := rec.Geom.(geom.Polygon)
		if !ok {
			continue
		}
		var sfids []string
		if rec.SrcSFIDs != "" {
			sfids = strings.Split(rec.SrcSFIDs, ";")
		}
		out = append(out, model.Site{
			SiteID:      rec.SiteID,
			SiteName:    rec.SiteName,
			SiteType:    model.SiteType(rec.SiteType),
			SourceSFIDs: sfids,
			Geom:        poly,
		})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("store: reading Site shapefile %q: %v", filename, err)
	}
	return out, nil
}

// WriteSites writes finalized Conservation Sites to a polygon shapefile,
// one feature per Site carrying its ECS_TIER/ESSENTIAL/CS_CONSVALUE
// attributes, following the EncodeFields pattern io.go's output writer
// uses for gridded results.
func WriteSites(filename string, sites []*model.Site) error {
	filename = strings.TrimSuffix(filename, ".shp") + ".shp"
	fields := []goshp.Field{
		goshp.StringField("SITEID", 50),
		goshp.StringField("SITENAME", 100),
		goshp.StringField("SITETYPE", 50),
		goshp.StringField("SRC_SFIDS", 254),
		goshp.StringField("ECS_TIER", 30),
		goshp.StringField("ESSENTIAL", 20),
		goshp.FloatField("CS_CONSVA", 19, 4),
		goshp.FloatField("CS_AREAHA", 19, 4),
		goshp.FloatField("BMISCORE", 19, 4),
		goshp.StringField("EEOSUMMAR", 254),
	}
	enc, err := shp.NewEncoderFromFields(filename, goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("store: creating Site shapefile %q: %v", filename, err)
	}
	defer enc.Close()

	for _, s := range sites {
		err := enc.EncodeFields(s.Geom, s.SiteID, s.SiteName, string(s.SiteType), strings.Join(s.SourceSFIDs, ";"),
			string(s.ECSTier), s.Essential, s.CSConsValue, s.CSAreaHA, s.BMIScore, s.EEOSummary)
		if err != nil {
			return fmt.Errorf("store: writing Site %s: %v", s.SiteID, err)
		}
	}
	return nil
}

// WriteEOs writes finalized Element Occurrences to a polygon shapefile.
func WriteEOs(filename string, eos []*model.EO) error {
	filename = strings.TrimSuffix(filename, ".shp") + ".shp"
	fields := []goshp.Field{
		goshp.StringField("SFEOID", 50),
		goshp.StringField("ELCODE", 20),
		goshp.StringField("NEWGRANK", 10),
		goshp.StringField("TIER", 30),
		goshp.StringField("EXCLUSION", 30),
		goshp.NumberField("FINALRANK", 2),
		goshp.NumberField("CHOICERAN", 2),
		goshp.FloatField("CONSVALUE", 19, 4),
		goshp.FloatField("PERCENTMI", 19, 4),
		goshp.FloatField("BMISCORE", 19, 4),
		goshp.FloatField("AREAHA", 19, 4),
		goshp.NumberField("OBSYEAR", 4),
		goshp.NumberField("PFCOUNT", 6),
	}
	enc, err := shp.NewEncoderFromFields(filename, goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("store: creating EO shapefile %q: %v", filename, err)
	}
	defer enc.Close()

	for _, eo := range eos {
		err := enc.EncodeFields(eo.Geom, eo.SFEOID, eo.ELCode, eo.NewGRank, string(eo.Tier),
			string(eo.Exclusion), eo.FinalRank, eo.ChoiceRank, eo.ConsValue, eo.PercentMil,
			eo.BMIScore, eo.AreaHA, eo.ObsYear, eo.PFCount)
		if err != nil {
			return fmt.Errorf("store: writing EO %s: %v", eo.SFEOID, err)
		}
	}
	return nil
}

// sortedELCodes is a small shared helper so every export writer lists
// elements in the same deterministic order (SPEC_FULL.md §5).
func sortedELCodes(summaries []model.ElementSummary) []string {
	out := make([]string, len(summaries))
	for i, s := range summaries {
		out[i] = s.ELCode
	}
	sort.Strings(out)
	return out
}
