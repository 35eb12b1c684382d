package services

import (
	portsrepo "github.com/stonefin/ledger-engine/internal/core/ports/repositories"
	portssvc "github.com/stonefin/ledger-engine/internal/core/ports/services"
)

// NewServiceContainer wires the services on top of the repositories.
func NewServiceContainer(repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	accountSvc := NewAccountService(repos.AccountRepo, repos.EntryRepo)
	return &portssvc.ServiceContainer{
		Account:   accountSvc,
		Posting:   NewPostingService(repos.EntryRepo, accountSvc),
		Reporting: NewReportingService(repos.AccountRepo, repos.EntryRepo),
	}
}
