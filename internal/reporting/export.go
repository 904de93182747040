// edumanage/internal/reporting/export.go
package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ArrearsWorkbook renders the arrears listing as an .xlsx workbook for the
// bursar's office.
func ArrearsWorkbook(rows []ArrearsRow) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Arrears"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headers := []string{"Admission No", "Student", "Grade", "Billed", "Paid", "Balance"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for r, row := range rows {
		values := []interface{}{
			row.AdmissionNumber,
			row.StudentName,
			row.GradeName,
			row.TotalBilled.InexactFloat64(),
			row.TotalPaid.InexactFloat64(),
			row.Balance.InexactFloat64(),
		}
		for c, value := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	summaryCell, _ := excelize.CoordinatesToCellName(1, len(rows)+3)
	if err := f.SetCellValue(sheet, summaryCell, fmt.Sprintf("%d students in arrears", len(rows))); err != nil {
		return nil, err
	}
	return f, nil
}
