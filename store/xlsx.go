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

	"github.com/tealeg/xlsx"

	"github.com/natheritage/ecs/model"
)

// WriteElementSummaryWorkbook writes the per-ELCODE rollup table
// (SPEC_FULL.md §4.H/§4.I's element summary report) to a Microsoft Excel
// workbook, the same library aeputil/excel.go reads with, used here in
// the write direction.
func WriteElementSummaryWorkbook(filename string, summaries []model.ElementSummary) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Elements")
	if err != nil {
		return fmt.Errorf("store: creating element summary sheet: %v", err)
	}

	header := sheet.AddRow()
	for _, h := range []string{
		"ELCODE", "CountAllEO", "CountIneligEO", "CountEligEO", "NumRegions",
		"Target", "InitTier", "Portfolio", "Status",
	} {
		header.AddCell().SetString(h)
	}

	for _, ec := range sortedELCodes(summaries) {
		s := findSummary(summaries, ec)
		row := sheet.AddRow()
		row.AddCell().SetString(s.ELCode)
		row.AddCell().SetInt(s.CountAllEO)
		row.AddCell().SetInt(s.CountIneligEO)
		row.AddCell().SetInt(s.CountEligEO)
		row.AddCell().SetInt(s.NumRegions)
		row.AddCell().SetInt(s.Target)
		row.AddCell().SetString(string(s.InitTier))
		row.AddCell().SetInt(s.Portfolio)
		row.AddCell().SetString(s.Status)
	}

	if err := f.Save(filename); err != nil {
		return fmt.Errorf("store: writing element summary workbook %q: %v", filename, err)
	}
	return nil
}

func findSummary(summaries []model.ElementSummary, elcode string) model.ElementSummary {
	for _, s := range summaries {
		if s.ELCode == elcode {
			return s
		}
	}
	return model.ElementSummary{}
}

// WriteFailureWorkbook writes a FailureReport to a Microsoft Excel
// workbook for manual review, per SPEC_FULL.md §7's non-fatal failure
// handling.
func WriteFailureWorkbook(filename string, failures *model.FailureReport) error {
	f := xlsx.NewFile()

	pfSheet, err := f.AddSheet("PF failures")
	if err != nil {
		return fmt.Errorf("store: creating PF failure sheet: %v", err)
	}
	pfSheet.AddRow().AddCell().SetString("SFID")
	for _, sfid := range failures.SFIDs {
		pfSheet.AddRow().AddCell().SetString(sfid)
	}

	protoSheet, err := f.AddSheet("ProtoSite failures")
	if err != nil {
		return fmt.Errorf("store: creating ProtoSite failure sheet: %v", err)
	}
	protoSheet.AddRow().AddCell().SetString("Error")
	for _, e := range failures.ProtoSiteErrors {
		protoSheet.AddRow().AddCell().SetString(e.Error())
	}

	elemSheet, err := f.AddSheet("Element failures")
	if err != nil {
		return fmt.Errorf("store: creating element failure sheet: %v", err)
	}
	header := elemSheet.AddRow()
	header.AddCell().SetString("ELCODE")
	header.AddCell().SetString("Error")
	for elcode, e := range failures.ElementErrors {
		row := elemSheet.AddRow()
		row.AddCell().SetString(elcode)
		row.AddCell().SetString(e.Error())
	}

	if err := f.Save(filename); err != nil {
		return fmt.Errorf("store: writing failure workbook %q: %v", filename, err)
	}
	return nil
}
