package main

import "fintrack/cmd"

// @title FinTrack API
// @version 1.0
// @description Personal finance tracker: accounts, categories, transactions, transfers and reports.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cmd.Execute()
}
