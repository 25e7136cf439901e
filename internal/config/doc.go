// Package config provides configuration management for excelflow.
//
// # Configuration Sources
//
// Configuration is assembled in the following order, later sources winning:
//
//	1. Default values (Default)
//	2. A YAML file (excelflow.yaml, configs/excelflow.yaml or an explicit path)
//	3. Environment variables with the EXCELFLOW_ prefix
//
// # Environment Variables
//
//	EXCELFLOW_PIPELINE_AMOUNT_COLUMN=Amount
//	EXCELFLOW_PIPELINE_RULE=gte=0
//	EXCELFLOW_PATHS_OUTPUT_DIR=output
//	EXCELFLOW_LOGGING_LEVEL=debug
//	EXCELFLOW_SERVER_PORT=8501
//
// # Output Layout
//
// All artifacts of a run live under one output directory:
//
//	output/
//	  ├── cleaned_data.xlsx
//	  ├── cleaned_data.csv        (optional)
//	  ├── summary_report.xlsx
//	  ├── amount_distribution.png
//	  └── automation.log
package config
