package inference

import (
	"fmt"
	"strings"

	"github.com/de-tools/aws-atlas/pkg/catalog"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
)

type side int

const (
	// holderFrom: the From record carries the references to To records.
	holderFrom side = iota
	// holderTo: the To record carries the references to From records.
	holderTo
)

// rule emits one edge per reference on the holder record that resolves to a
// record of the other kind.
type rule struct {
	name     string
	from, to domain.Kind
	relation domain.RelationKind
	holder   side
	attr     string
	refs     func(rc *ruleContext, holder domain.Resource) []string
	keys     func(rc *ruleContext, target domain.Resource) []string
	// strict rules report references to ids absent from the catalog.
	strict bool
}

func (r rule) holderKind() domain.Kind {
	if r.holder == holderFrom {
		return r.from
	}
	return r.to
}

func (r rule) targetKind() domain.Kind {
	if r.holder == holderFrom {
		return r.to
	}
	return r.from
}

type ruleContext struct {
	cat      *catalog.Catalog
	explicit map[string]bool
}

// explicitlyAssociated reports whether a route table names the subnet directly.
func (rc *ruleContext) explicitlyAssociated(subnetID string) bool {
	if rc.explicit == nil {
		rc.explicit = make(map[string]bool)
		for rt := range rc.cat.AllOfKind(domain.KindRouteTable) {
			for _, id := range rt.Strings(domain.AttrSubnetIDs) {
				rc.explicit[id] = true
			}
		}
	}
	return rc.explicit[subnetID]
}

type refFunc func(rc *ruleContext, r domain.Resource) []string

func attrRefs(key string) refFunc {
	return func(_ *ruleContext, r domain.Resource) []string {
		return r.Strings(key)
	}
}

// arnRefs keeps only ARNs of the given service namespace.
func arnRefs(key, service string) refFunc {
	return func(_ *ruleContext, r domain.Resource) []string {
		var out []string
		for _, ref := range r.Strings(key) {
			if ARNService(ref) == service {
				out = append(out, ref)
			}
		}
		return out
	}
}

// functionRefs keeps Lambda ARNs with any version or alias qualifier removed,
// so `function:worker:live` resolves to the `function:worker` record.
func functionRefs(key string) refFunc {
	return func(_ *ruleContext, r domain.Resource) []string {
		var out []string
		for _, ref := range r.Strings(key) {
			if ARNService(ref) == "lambda" {
				out = append(out, UnqualifiedFunctionARN(ref))
			}
		}
		return out
	}
}

// UnqualifiedFunctionARN drops a version or alias suffix from a Lambda
// function ARN. Other strings are returned unchanged.
func UnqualifiedFunctionARN(arn string) string {
	parts := strings.Split(arn, ":")
	if len(parts) > 7 && parts[2] == "lambda" && parts[5] == "function" {
		return strings.Join(parts[:7], ":")
	}
	return arn
}

func prefixRefs(key, prefix string) refFunc {
	return func(_ *ruleContext, r domain.Resource) []string {
		var out []string
		for _, ref := range r.Strings(key) {
			if strings.HasPrefix(ref, prefix) {
				out = append(out, ref)
			}
		}
		return out
	}
}

func idKeys(_ *ruleContext, r domain.Resource) []string {
	keys := []string{r.ID}
	if arn := r.Str(domain.AttrARN); arn != "" && arn != r.ID {
		keys = append(keys, arn)
	}
	return keys
}

// ARNService returns the service namespace of an ARN, or "".
func ARNService(arn string) string {
	parts := strings.SplitN(arn, ":", 4)
	if len(parts) < 4 || parts[0] != "arn" {
		return ""
	}
	return parts[2]
}

// owned builds a rule where the To record points at its From owner through attr.
func owned(from, to domain.Kind, rel domain.RelationKind, attr string) rule {
	return rule{
		name:     fmt.Sprintf("%s->%s", from, to),
		from:     from,
		to:       to,
		relation: rel,
		holder:   holderTo,
		attr:     attr,
		refs:     attrRefs(attr),
		keys:     idKeys,
		strict:   true,
	}
}

// pointing builds a rule where the From record lists its To records in attr.
func pointing(from, to domain.Kind, rel domain.RelationKind, attr string) rule {
	return rule{
		name:     fmt.Sprintf("%s->%s", from, to),
		from:     from,
		to:       to,
		relation: rel,
		holder:   holderFrom,
		attr:     attr,
		refs:     attrRefs(attr),
		keys:     idKeys,
		strict:   true,
	}
}

func (r rule) withRefs(fn refFunc) rule {
	r.refs = fn
	return r
}

func (r rule) withKeys(fn refFunc) rule {
	r.keys = fn
	return r
}

func (r rule) lenient() rule {
	r.strict = false
	return r
}

func (r rule) named(name string) rule {
	r.name = name
	return r
}

var (
	vpcScoped = []domain.Kind{
		domain.KindSubnet,
		domain.KindRouteTable,
		domain.KindSecurityGroup,
		domain.KindTargetGroup,
		domain.KindNatGateway,
		domain.KindVpcEndpoint,
		domain.KindInstance,
		domain.KindLoadBalancer,
		domain.KindLambdaFunction,
		domain.KindEksCluster,
		domain.KindRdsInstance,
		domain.KindElastiCacheCluster,
		domain.KindEfs,
	}
	singleSubnet = []domain.Kind{
		domain.KindInstance,
		domain.KindNatGateway,
	}
	multiSubnet = []domain.Kind{
		domain.KindVpcEndpoint,
		domain.KindEcsService,
		domain.KindEksCluster,
		domain.KindLambdaFunction,
		domain.KindRdsInstance,
		domain.KindElastiCacheCluster,
		domain.KindLoadBalancer,
		domain.KindEfs,
	}
	sgHolders = []domain.Kind{
		domain.KindInstance,
		domain.KindEcsService,
		domain.KindEksCluster,
		domain.KindLambdaFunction,
		domain.KindRdsInstance,
		domain.KindElastiCacheCluster,
		domain.KindLoadBalancer,
		domain.KindVpcEndpoint,
	}
	roleHolders = []domain.Kind{
		domain.KindLambdaFunction,
		domain.KindEcsService,
		domain.KindEksCluster,
	}
	eventTargets = map[domain.Kind]string{
		domain.KindLambdaFunction: "lambda",
		domain.KindQueue:          "sqs",
		domain.KindTopic:          "sns",
	}
)

func defaultRules() []rule {
	var rules []rule

	for _, k := range vpcScoped {
		rules = append(rules, owned(domain.KindVPC, k, domain.RelationContains, domain.AttrVpcID))
	}
	rules = append(rules,
		pointing(domain.KindInternetGateway, domain.KindVPC, domain.RelationAttachedTo, domain.AttrVpcID),
		pointing(domain.KindRouteTable, domain.KindSubnet, domain.RelationAttachedTo, domain.AttrSubnetIDs),
		mainRouteTable(),
		pointing(domain.KindRouteTable, domain.KindInternetGateway, domain.RelationRoutesTo, domain.AttrGatewayIDs).
			withRefs(prefixRefs(domain.AttrGatewayIDs, "igw-")),
		pointing(domain.KindRouteTable, domain.KindNatGateway, domain.RelationRoutesTo, domain.AttrNatGatewayIDs),
	)

	for _, k := range singleSubnet {
		rules = append(rules, owned(domain.KindSubnet, k, domain.RelationContains, domain.AttrSubnetID))
	}
	for _, k := range multiSubnet {
		rules = append(rules, owned(domain.KindSubnet, k, domain.RelationContains, domain.AttrSubnetIDs))
	}
	for _, k := range sgHolders {
		rules = append(rules, pointing(k, domain.KindSecurityGroup, domain.RelationAttachedTo, domain.AttrSecurityGroupIDs))
	}

	rules = append(rules,
		owned(domain.KindEcsCluster, domain.KindEcsService, domain.RelationContains, domain.AttrClusterArn),
		owned(domain.KindLoadBalancer, domain.KindListener, domain.RelationContains, domain.AttrLoadBalancerArn),
		pointing(domain.KindListener, domain.KindTargetGroup, domain.RelationRoutesTo, domain.AttrTargetGroupArns),
		owned(domain.KindLoadBalancer, domain.KindTargetGroup, domain.RelationRoutesTo, domain.AttrLoadBalancerArns),
		pointing(domain.KindTargetGroup, domain.KindInstance, domain.RelationTargets, domain.AttrTargetIDs).
			withRefs(prefixRefs(domain.AttrTargetIDs, "i-")),
		pointing(domain.KindTargetGroup, domain.KindLambdaFunction, domain.RelationTargets, domain.AttrTargetIDs).
			withRefs(functionRefs(domain.AttrTargetIDs)),
		owned(domain.KindTargetGroup, domain.KindEcsService, domain.RelationTargets, domain.AttrTargetGroupArns),

		owned(domain.KindQueue, domain.KindLambdaFunction, domain.RelationTriggers, domain.AttrEventSourceArns).
			withRefs(arnRefs(domain.AttrEventSourceArns, "sqs")),
		owned(domain.KindTopic, domain.KindLambdaFunction, domain.RelationTriggers, domain.AttrEventSourceArns).
			withRefs(arnRefs(domain.AttrEventSourceArns, "sns")),
		owned(domain.KindDynamoTable, domain.KindLambdaFunction, domain.RelationTriggers, domain.AttrEventSourceArns).
			withRefs(streamTableRefs),
		pointing(domain.KindTopic, domain.KindQueue, domain.RelationTriggers, domain.AttrSubscriptionEndpoints).
			withRefs(arnRefs(domain.AttrSubscriptionEndpoints, "sqs")).
			named("Topic->Queue:subscription"),
		pointing(domain.KindTopic, domain.KindLambdaFunction, domain.RelationTriggers, domain.AttrSubscriptionEndpoints).
			withRefs(functionRefs(domain.AttrSubscriptionEndpoints)).
			named("Topic->LambdaFunction:subscription"),
	)

	for _, k := range []domain.Kind{domain.KindLambdaFunction, domain.KindQueue, domain.KindTopic} {
		refs := arnRefs(domain.AttrTargetArns, eventTargets[k])
		if k == domain.KindLambdaFunction {
			refs = functionRefs(domain.AttrTargetArns)
		}
		rules = append(rules,
			pointing(domain.KindEventRule, k, domain.RelationTriggers, domain.AttrTargetArns).
				withRefs(refs))
	}
	for _, k := range roleHolders {
		rules = append(rules, pointing(k, domain.KindIamRole, domain.RelationAttachedTo, domain.AttrRoleArn).lenient())
	}

	rules = append(rules,
		pointing(domain.KindLambdaFunction, domain.KindLogGroup, domain.RelationAttachedTo, "name").
			withRefs(lambdaLogGroup).
			withKeys(nameKeys).
			lenient(),
		pointing(domain.KindDistribution, domain.KindS3Bucket, domain.RelationRoutesTo, domain.AttrOriginDomains).
			withRefs(bucketOrigins).
			withKeys(nameKeys).
			lenient(),
		pointing(domain.KindDistribution, domain.KindLoadBalancer, domain.RelationRoutesTo, domain.AttrOriginDomains).
			withRefs(lowerRefs(domain.AttrOriginDomains)).
			withKeys(dnsKeys).
			lenient(),
		pointing(domain.KindRestApi, domain.KindLambdaFunction, domain.RelationRoutesTo, domain.AttrIntegrationArns).
			withRefs(functionRefs(domain.AttrIntegrationArns)),
	)
	return rules
}

// mainRouteTable attaches a VPC's main route table to every subnet of that VPC
// without an explicit association.
func mainRouteTable() rule {
	return rule{
		name:     "RouteTable->Subnet:main",
		from:     domain.KindRouteTable,
		to:       domain.KindSubnet,
		relation: domain.RelationAttachedTo,
		holder:   holderFrom,
		attr:     domain.AttrMain,
		refs: func(_ *ruleContext, rt domain.Resource) []string {
			if !rt.Bool(domain.AttrMain) || rt.Str(domain.AttrVpcID) == "" {
				return nil
			}
			return []string{"main:" + rt.Str(domain.AttrVpcID)}
		},
		keys: func(rc *ruleContext, subnet domain.Resource) []string {
			if rc.explicitlyAssociated(subnet.ID) || subnet.Str(domain.AttrVpcID) == "" {
				return nil
			}
			return []string{"main:" + subnet.Str(domain.AttrVpcID)}
		},
	}
}

// streamTableRefs maps DynamoDB stream ARNs onto their table ARN.
func streamTableRefs(_ *ruleContext, fn domain.Resource) []string {
	var out []string
	for _, ref := range fn.Strings(domain.AttrEventSourceArns) {
		if ARNService(ref) != "dynamodb" {
			continue
		}
		if i := strings.Index(ref, "/stream/"); i >= 0 {
			ref = ref[:i]
		}
		out = append(out, ref)
	}
	return out
}

func lambdaLogGroup(_ *ruleContext, fn domain.Resource) []string {
	if fn.Name == "" {
		return nil
	}
	return []string{"/aws/lambda/" + fn.Name}
}

func nameKeys(_ *ruleContext, r domain.Resource) []string {
	if r.Name == "" {
		return nil
	}
	return []string{r.Name}
}

func dnsKeys(_ *ruleContext, r domain.Resource) []string {
	dns := strings.ToLower(strings.TrimSuffix(r.Str(domain.AttrDNSName), "."))
	if dns == "" {
		return nil
	}
	return []string{dns}
}

func lowerRefs(key string) refFunc {
	return func(_ *ruleContext, r domain.Resource) []string {
		var out []string
		for _, ref := range r.Strings(key) {
			out = append(out, strings.ToLower(strings.TrimSuffix(ref, ".")))
		}
		return out
	}
}

// bucketOrigins extracts bucket names from S3 origin domains such as
// "assets.s3.amazonaws.com" or "assets.s3.eu-west-1.amazonaws.com".
func bucketOrigins(_ *ruleContext, d domain.Resource) []string {
	var out []string
	for _, origin := range d.Strings(domain.AttrOriginDomains) {
		origin = strings.ToLower(origin)
		if i := strings.Index(origin, ".s3."); i > 0 {
			out = append(out, origin[:i])
			continue
		}
		if i := strings.Index(origin, ".s3-"); i > 0 {
			out = append(out, origin[:i])
		}
	}
	return out
}
