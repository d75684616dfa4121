package reports

import (
	"context"
	"fmt"
	"io"

	"bitbucket.org/mmdatafocus/orders_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// WriteOrderValueReport renders the per-customer fulfilled order value
// breakdown as an xlsx workbook onto w. Customers whose total falls below
// minTotal are left out of the sheet.
func WriteOrderValueReport(ctx context.Context, w io.Writer, minTotal decimal.Decimal) error {
	rows, err := models.GetCustomerOrderValues(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	sheetName := "OrderValue"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	// Add headers
	f.SetCellValue(sheetName, "A1", "CustomerName")
	f.SetCellValue(sheetName, "B1", "OrderCount")
	f.SetCellValue(sheetName, "C1", "TotalValue")

	// Add data
	rowIndex := 2
	for _, row := range rows {
		if row.TotalValue.LessThan(minTotal) {
			continue
		}
		f.SetCellValue(sheetName, "A"+fmt.Sprint(rowIndex), row.CustomerName)
		f.SetCellValue(sheetName, "B"+fmt.Sprint(rowIndex), row.OrderCount)
		f.SetCellValue(sheetName, "C"+fmt.Sprint(rowIndex), row.TotalValue.String())
		rowIndex++
	}

	return f.Write(w)
}
