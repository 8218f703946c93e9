// Package match clusters evidence instances that refer to the same
// underlying fact.
package match

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pkoval/credence/internal/model"
)

// Matcher groups entity-resolved evidence instances into claim clusters.
// Two instances join a cluster only if subject and object resolve to the
// same entity cluster pair and their predicates are evidence-compatible
// per the role table. The cluster's canonical predicate is the strongest
// predicate observed; weaker predicates contribute as supporting evidence.
type Matcher struct {
	roles  *RoleTable
	logger *zap.Logger
}

// NewMatcher creates a matcher with the configured evidence-role table
func NewMatcher(cfg model.RolesConfig, logger *zap.Logger) *Matcher {
	roles := cfg.EvidenceFor
	if roles == nil {
		roles = model.DefaultEvidenceRoles()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		roles:  NewRoleTable(roles),
		logger: logger,
	}
}

// Cluster assigns every instance to exactly one claim cluster. Instances
// missing entity resolution are rejected with a ResolutionAmbiguityError
// rather than guessed at.
func (m *Matcher) Cluster(instances []model.EvidenceInstance) ([]*model.ClaimCluster, error) {
	return m.Assign(nil, instances)
}

// Assign adds instances to an existing cluster set, creating new clusters
// for instances that fit none. Existing cluster membership never changes.
func (m *Matcher) Assign(clusters []*model.ClaimCluster, instances []model.EvidenceInstance) ([]*model.ClaimCluster, error) {
	for _, inst := range instances {
		if inst.SubjectEntity == "" || inst.ObjectEntity == "" {
			return clusters, &model.ResolutionAmbiguityError{
				Mention: inst.SubjectText + " / " + inst.ObjectText,
				Reason:  "instance is not entity-resolved",
			}
		}
		pred := NormalizePredicate(inst.PredicateText)
		target := m.findCluster(clusters, inst, pred)
		if target == nil {
			target = &model.ClaimCluster{
				ID:        uuid.NewString(),
				Subject:   inst.SubjectEntity,
				Predicate: pred,
				Object:    inst.ObjectEntity,
			}
			clusters = append(clusters, target)
		} else if stronger := m.roles.Stronger(target.Predicate, pred); stronger != target.Predicate {
			m.logger.Debug("upgrading canonical predicate",
				zap.String("cluster", target.ID),
				zap.String("from", target.Predicate),
				zap.String("to", stronger))
			target.Predicate = stronger
		}
		target.AppendEvidence(inst)
	}
	return clusters, nil
}

func (m *Matcher) findCluster(clusters []*model.ClaimCluster, inst model.EvidenceInstance, pred string) *model.ClaimCluster {
	for _, c := range clusters {
		if c.Subject != inst.SubjectEntity || c.Object != inst.ObjectEntity {
			continue
		}
		if m.roles.Compatible(c.Predicate, pred) {
			return c
		}
	}
	return nil
}
