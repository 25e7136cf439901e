// Package dataprocessing implements the record-cleaning pipeline stages for
// tabular datasets.
//
// # Stages
//
// The package is organized into four components that run strictly left to right:
//
// 1. Loader: reads a CSV or Excel workbook into a domain.Table
// 2. Cleaner: removes duplicate rows and fills missing cells
// 3. Validator: drops rows failing the business rule on the designated column
// 4. Summarizer: computes descriptive statistics and the histogram of the designated column
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger)
//	table, err := loader.Load(ctx, "data/sample_data.xlsx")
//	if err != nil {
//	    return err
//	}
//
//	cleaned, err := dataprocessing.NewCleaner(logger, "Unknown").Clean(ctx, table)
//
//	validator, err := dataprocessing.NewValidator("Amount", "gte=0", logger)
//	valid, err := validator.Validate(ctx, cleaned)
//
//	summary, err := dataprocessing.NewSummarizer(logger).Describe(ctx, valid)
//
// # Purity
//
// Every stage returns a new Table and never modifies its input, so the
// interactive session can keep the previous Table when a stage fails.
//
// # Error Handling
//
// Stage failures are returned as *errors.AppError values of type LOAD,
// CLEANING, VALIDATION or REPORT from excelflow/internal/errors.
package dataprocessing
