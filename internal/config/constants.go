package config

// Application constants
const (
	AppName = "excelflow"

	// Pipeline defaults
	DefaultAmountColumn  = "Amount"
	DefaultRule          = "gte=0"
	DefaultUnknownText   = "Unknown"
	DefaultHistogramBins = 20
	DefaultPreviewRows   = 10

	// Fixed input and output locations, relative to the working directory
	DefaultInputFile = "data/sample_data.xlsx"
	DefaultOutputDir = "output"
	CleanedFileName  = "cleaned_data.xlsx"
	CleanedCSVName   = "cleaned_data.csv"
	SummaryFileName  = "summary_report.xlsx"
	ChartFileName    = "amount_distribution.png"
	LogFileName      = "automation.log"

	// Sheet names written to output workbooks
	DataSheetName      = "Sheet1"
	SummarySheetName   = "Summary"
	HistogramSheetName = "Histogram"
)
