package services

import (
	"regexp"
	"strings"

	"contratos-backend/models"
	"contratos-backend/utils"

	"gorm.io/gorm"
)

var taxIDPattern = regexp.MustCompile(`^\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2}$`)

func validCompanyKind(k models.CompanyKind) bool {
	switch k {
	case models.CompanyHeadquarters, models.CompanyBranch, models.CompanyConsortiumMember, models.CompanySCP, models.CompanyClient, models.CompanyInsurer:
		return true
	}
	return false
}

type CompanyInput struct {
	LegalName string
	TaxID     string
	Kind      models.CompanyKind
}

type CompanyPatch struct {
	LegalName *string             `json:"legal_name"`
	TaxID     *string             `json:"tax_id"`
	Kind      *models.CompanyKind `json:"kind"`
}

func (s *Service) CreateCompany(tx *gorm.DB, in CompanyInput) (*models.Company, error) {
	name, taxID := strings.TrimSpace(in.LegalName), strings.TrimSpace(in.TaxID)
	if name == "" {
		return nil, violation("legal name is required")
	}
	if !taxIDPattern.MatchString(taxID) {
		return nil, violation("tax id %q is not a valid CNPJ", in.TaxID)
	}
	if !validCompanyKind(in.Kind) {
		return nil, violation("unknown company kind %q", in.Kind)
	}
	co := models.Company{LegalName: name, TaxID: taxID, Kind: in.Kind}
	if err := tx.Create(&co).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return &co, nil
}

func (s *Service) GetCompany(tx *gorm.DB, id uint) (*models.Company, error) {
	var co models.Company
	if err := tx.First(&co, id).Error; err != nil {
		return nil, lookupErr(err, "company %d not found", id)
	}
	return &co, nil
}

func (s *Service) ListCompanies(tx *gorm.DB, kind models.CompanyKind, page Page) ([]models.Company, error) {
	q := tx.Model(&models.Company{})
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var out []models.Company
	if err := page.apply(q.Order("legal_name, id")).Find(&out).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return out, nil
}

// UpdateCompany edits a company. A client of some contract, or the insurer of some
// policy, cannot change kind.
func (s *Service) UpdateCompany(tx *gorm.DB, id uint, p CompanyPatch) (*models.Company, error) {
	co, err := s.GetCompany(tx, id)
	if err != nil {
		return nil, err
	}
	if p.LegalName != nil {
		name := strings.TrimSpace(*p.LegalName)
		if name == "" {
			return nil, violation("legal name is required")
		}
		p.LegalName = &name
	}
	if p.TaxID != nil {
		taxID := strings.TrimSpace(*p.TaxID)
		if !taxIDPattern.MatchString(taxID) {
			return nil, violation("tax id %q is not a valid CNPJ", *p.TaxID)
		}
		p.TaxID = &taxID
	}
	if p.Kind != nil && *p.Kind != co.Kind {
		if !validCompanyKind(*p.Kind) {
			return nil, violation("unknown company kind %q", *p.Kind)
		}
		var n int64
		switch co.Kind {
		case models.CompanyClient:
			err = tx.Model(&models.Contract{}).Where("client_id = ?", id).Count(&n).Error
		case models.CompanyInsurer:
			err = tx.Model(&models.InsurancePolicy{}).Where("insurer_id = ?", id).Count(&n).Error
		}
		if err != nil {
			return nil, ClassifyDBError(err)
		}
		if n > 0 {
			return nil, violation("company %d is referenced %d time(s) as %s and must keep its kind", id, n, co.Kind)
		}
	}
	updates := utils.ChangedColumns(&p)
	if len(updates) == 0 {
		return co, nil
	}
	if err := tx.Model(&models.Company{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return s.GetCompany(tx, id)
}

// DeleteCompany refuses to remove a company still referenced by a contract, participant list,
// invoice or insurance policy.
func (s *Service) DeleteCompany(tx *gorm.DB, id uint) error {
	if _, err := s.GetCompany(tx, id); err != nil {
		return err
	}
	checks := []struct {
		model any
		where string
		what  string
	}{
		{&models.Contract{}, "client_id = ?", "the client of a contract"},
		{&models.Participant{}, "company_id = ?", "a contract participant"},
		{&models.Invoice{}, "issuer_id = ? OR client_id = ?", "a party to an invoice"},
		{&models.InsurancePolicy{}, "insurer_id = ?", "the insurer of a policy"},
	}
	for _, ch := range checks {
		args := []any{id}
		if strings.Count(ch.where, "?") == 2 {
			args = append(args, id)
		}
		var n int64
		if err := tx.Model(ch.model).Where(ch.where, args...).Count(&n).Error; err != nil {
			return ClassifyDBError(err)
		}
		if n > 0 {
			return violation("company %d is %s and cannot be deleted", id, ch.what)
		}
	}
	if err := tx.Delete(&models.Company{}, id).Error; err != nil {
		return ClassifyDBError(err)
	}
	return nil
}
