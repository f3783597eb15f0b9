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

package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"

	"github.com/natheritage/ecs/modprep"
	"github.com/natheritage/ecs/prioritize"
	"github.com/natheritage/ecs/sbb"
	"github.com/natheritage/ecs/stream"
)

// fieldNames trims the null padding go-shp leaves in its fixed-width DBF
// field name bytes, the same conversion ctessum/geom/encoding/shp's
// unexported shpFieldName2String performs internally.
func fieldNames(d *shp.Decoder) []string {
	var names []string
	for _, f := range d.Fields() {
		names = append(names, strings.TrimRight(string(f.Name[:]), "\x00"))
	}
	return names
}

func isTruthy(s string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, "Y") || strings.EqualFold(s, "true") || s == "1"
}

// ReadFeatures reads a generic polygon shapefile into modprep.Feature
// records, attribute values typed float64/bool/string per
// modprep.Feature's own contract, for use as a hydrography,
// transportation, or exclusion modifier layer.
func ReadFeatures(filename string) ([]modprep.Feature, error) {
	filename = strings.TrimSuffix(filename, ".shp")
	d, err := shp.NewDecoder(filename + ".shp")
	if err != nil {
		return nil, fmt.Errorf("store: opening feature shapefile %q: %v", filename, err)
	}
	defer d.Close()
	names := fieldNames(d)

	var out []modprep.Feature
	for {
		g, raw, more := d.DecodeRowFields(names...)
		if !more {
			break
		}
		poly, ok := g.(geom.Polygon)
		if !ok {
			continue
		}
		attrs := make(map[string]interface{}, len(raw))
		for k, v := range raw {
			attrs[k] = typeAttr(v)
		}
		out = append(out, modprep.Feature{Attrs: attrs, Geom: poly})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("store: reading feature shapefile %q: %v", filename, err)
	}
	return out, nil
}

// typeAttr converts a raw DBF attribute string to a float64 or bool when it
// parses cleanly as one, falling back to the original string.
func typeAttr(s string) interface{} {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if isTruthy(s) {
		return true
	}
	if strings.EqualFold(s, "N") || strings.EqualFold(s, "false") || s == "0" {
		return false
	}
	return s
}

type nwiRecord struct {
	geom.Geom
	Rule5 string
	Rule6 string
	Rule7 string
	Rule9 string
	Tidal string
}

// ReadNWIFeatures reads an NWI shapefile pre-joined to the four binary
// rule-subset columns and the Tidal flag, the same column set
// sbb.NWIFeature carries.
func ReadNWIFeatures(filename string) ([]sbb.NWIFeature, error) {
	filename = strings.TrimSuffix(filename, ".shp")
	d, err := shp.NewDecoder(filename + ".shp")
	if err != nil {
		return nil, fmt.Errorf("store: opening NWI shapefile %q: %v", filename, err)
	}
	defer d.Close()

	var out []sbb.NWIFeature
	for {
		var rec nwiRecord
		if ok := d.DecodeRow(&rec); !ok {
			break
		}
		poly, ok := rec.Geom.(geom.Polygon)
		if !ok {
			continue
		}
		out = append(out, sbb.NWIFeature{
			Geom:  poly,
			Rule5: isTruthy(rec.Rule5),
			Rule6: isTruthy(rec.Rule6),
			Rule7: isTruthy(rec.Rule7),
			Rule9: isTruthy(rec.Rule9),
			Tidal: isTruthy(rec.Tidal),
		})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("store: reading NWI shapefile %q: %v", filename, err)
	}
	return out, nil
}

type flowlineRecord struct {
	geom.Geom
	ID    string `shp:"COMID"`
	Tidal string
}

// ReadFlowlines reads an NHD flowline shapefile.
func ReadFlowlines(filename string) ([]stream.Flowline, error) {
	filename = strings.TrimSuffix(filename, ".shp")
	d, err := shp.NewDecoder(filename + ".shp")
	if err != nil {
		return nil, fmt.Errorf("store: opening flowline shapefile %q: %v", filename, err)
	}
	defer d.Close()

	var out []stream.Flowline
	for {
		var rec flowlineRecord
		if ok := d.DecodeRow(&rec); !ok {
			break
		}
		line, ok := rec.Geom.(geom.LineString)
		if !ok {
			continue
		}
		out = append(out, stream.Flowline{ID: rec.ID, Geom: line, Tidal: isTruthy(rec.Tidal)})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("store: reading flowline shapefile %q: %v", filename, err)
	}
	return out, nil
}

type waterbodyRecord struct {
	geom.Geom
	ID string `shp:"COMID"`
}

// ReadWaterbodies reads an NHD waterbody/area shapefile.
func ReadWaterbodies(filename string) ([]stream.Waterbody, error) {
	filename = strings.TrimSuffix(filename, ".shp")
	d, err := shp.NewDecoder(filename + ".shp")
	if err != nil {
		return nil, fmt.Errorf("store: opening waterbody shapefile %q: %v", filename, err)
	}
	defer d.Close()

	var out []stream.Waterbody
	for {
		var rec waterbodyRecord
		if ok := d.DecodeRow(&rec); !ok {
			break
		}
		poly, ok := rec.Geom.(geom.Polygon)
		if !ok {
			continue
		}
		out = append(out, stream.Waterbody{ID: rec.ID, Geom: poly})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("store: reading waterbody shapefile %q: %v", filename, err)
	}
	return out, nil
}

type catchmentRecord struct {
	geom.Geom
	FlowlineID string `shp:"FEATUREID"`
}

// ReadCatchments reads an NHDPlus catchment shapefile.
func ReadCatchments(filename string) ([]stream.Catchment, error) {
	filename = strings.TrimSuffix(filename, ".shp")
	d, err := shp.NewDecoder(filename + ".shp")
	if err != nil {
		return nil, fmt.Errorf("store: opening catchment shapefile %q: %v", filename, err)
	}
	defer d.Close()

	var out []stream.Catchment
	for {
		var rec catchmentRecord
		if ok := d.DecodeRow(&rec); !ok {
			break
		}
		poly, ok := rec.Geom.(geom.Polygon)
		if !ok {
			continue
		}
		out = append(out, stream.Catchment{FlowlineID: rec.FlowlineID, Geom: poly})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("store: reading catchment shapefile %q: %v", filename, err)
	}
	return out, nil
}

type geomRecord struct {
	geom.Geom
}

// ReadDams reads a point shapefile of in-stream barriers (dams, culverts).
func ReadDams(filename string) ([]stream.Barrier, error) {
	filename = strings.TrimSuffix(filename, ".shp")
	d, err := shp.NewDecoder(filename + ".shp")
	if err != nil {
		return nil, fmt.Errorf("store: opening dam shapefile %q: %v", filename, err)
	}
	defer d.Close()

	var out []stream.Barrier
	for {
		var rec geomRecord
		if ok := d.DecodeRow(&rec); !ok {
			break
		}
		pt, ok := rec.Geom.(geom.Point)
		if !ok {
			continue
		}
		out = append(out, stream.Barrier{Geom: pt})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("store: reading dam shapefile %q: %v", filename, err)
	}
	return out, nil
}

type conservationLandRecord struct {
	geom.Geom
	BMIClass string `shp:"BMI_CLASS"`
	MAType   string `shp:"MATYPE"`
}

// ReadConservationLands reads a BMI-classified conservation land parcel
// shapefile. BMI_CLASS="U" (unranked) maps to BMIClass=0.
func ReadConservationLands(filename string) ([]prioritize.ConservationLand, error) {
	filename = strings.TrimSuffix(filename, ".shp")
	d, err := shp.NewDecoder(filename + ".shp")
	if err != nil {
		return nil, fmt.Errorf("store: opening conservation lands shapefile %q: %v", filename, err)
	}
	defer d.Close()

	var out []prioritize.ConservationLand
	for {
		var rec conservationLandRecord
		if ok := d.DecodeRow(&rec); !ok {
			break
		}
		poly, ok := rec.Geom.(geom.Polygon)
		if !ok {
			continue
		}
		class, _ := strconv.Atoi(strings.TrimSpace(rec.BMIClass))
		out = append(out, prioritize.ConservationLand{Geom: poly, BMIClass: class, MAType: rec.MAType})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("store: reading conservation lands shapefile %q: %v", filename, err)
	}
	return out, nil
}

type ecoRegionRecord struct {
	geom.Geom
	Code string `shp:"ECOCODE"`
}

// ReadEcoRegions reads a named ecoregion polygon shapefile.
func ReadEcoRegions(filename string) ([]prioritize.EcoRegion, error) {
	filename = strings.TrimSuffix(filename, ".shp")
	d, err := shp.NewDecoder(filename + ".shp")
	if err != nil {
		return nil, fmt.Errorf("store: opening ecoregion shapefile %q: %v", filename, err)
	}
	defer d.Close()

	var out []prioritize.EcoRegion
	for {
		var rec ecoRegionRecord
		if ok := d.DecodeRow(&rec); !ok {
			break
		}
		poly, ok := rec.Geom.(geom.Polygon)
		if !ok {
			continue
		}
		out = append(out, prioritize.EcoRegion{Code: rec.Code, Geom: poly})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("store: reading ecoregion shapefile %q: %v", filename, err)
	}
	return out, nil
}

// ReadNAPFeatures reads a Natural Area Preserve presence polygon
// shapefile.
func ReadNAPFeatures(filename string) ([]prioritize.NAPFeature, error) {
	filename = strings.TrimSuffix(filename, ".shp")
	d, err := shp.NewDecoder(filename + ".shp")
	if err != nil {
		return nil, fmt.Errorf("store: opening NAP shapefile %q: %v", filename, err)
	}
	defer d.Close()

	var out []prioritize.NAPFeature
	for {
		var rec geomRecord
		if ok := d.DecodeRow(&rec); !ok {
			break
		}
		poly, ok := rec.Geom.(geom.Polygon)
		if !ok {
			continue
		}
		out = append(out, prioritize.NAPFeature{Geom: poly})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("store: reading NAP shapefile %q: %v", filename, err)
	}
	return out, nil
}
