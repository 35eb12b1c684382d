package services

// ServiceContainer bundles the service interfaces for injection into the
// HTTP layer.
type ServiceContainer struct {
	Account   AccountService
	Posting   PostingService
	Reporting ReportingService
}
