package domain

// Attribute keys shared by readers, snapshot import and inference rules.
const (
	AttrARN                   = "arn"
	AttrVpcID                 = "vpc_id"
	AttrSubnetID              = "subnet_id"
	AttrSubnetIDs             = "subnet_ids"
	AttrSecurityGroupIDs      = "security_group_ids"
	AttrCidrBlock             = "cidr_block"
	AttrAvailabilityZone      = "availability_zone"
	AttrMapPublicIPOnLaunch   = "map_public_ip_on_launch"
	AttrIsDefault             = "is_default"
	AttrMain                  = "main"
	AttrGatewayIDs            = "gateway_ids"
	AttrNatGatewayIDs         = "nat_gateway_ids"
	AttrState                 = "state"
	AttrInstanceType          = "instance_type"
	AttrImageID               = "image_id"
	AttrPrivateIP             = "private_ip"
	AttrServiceName           = "service_name"
	AttrEndpointType          = "endpoint_type"
	AttrRouteTableIDs         = "route_table_ids"
	AttrClusterArn            = "cluster_arn"
	AttrDesiredCount          = "desired_count"
	AttrLaunchType            = "launch_type"
	AttrTargetGroupArns       = "target_group_arns"
	AttrRoleArn               = "role_arn"
	AttrStatus                = "status"
	AttrVersion               = "version"
	AttrRuntime               = "runtime"
	AttrHandler               = "handler"
	AttrEventSourceArns       = "event_source_arns"
	AttrEngine                = "engine"
	AttrInstanceClass         = "instance_class"
	AttrSubnetGroup           = "subnet_group"
	AttrStreamArn             = "stream_arn"
	AttrBillingMode           = "billing_mode"
	AttrNodeType              = "node_type"
	AttrCreationDate          = "creation_date"
	AttrEncrypted             = "encrypted"
	AttrPerformanceMode       = "performance_mode"
	AttrSizeBytes             = "size_bytes"
	AttrDNSName               = "dns_name"
	AttrType                  = "type"
	AttrScheme                = "scheme"
	AttrLoadBalancerArn       = "load_balancer_arn"
	AttrLoadBalancerArns      = "load_balancer_arns"
	AttrPort                  = "port"
	AttrProtocol              = "protocol"
	AttrTargetType            = "target_type"
	AttrTargetIDs             = "target_ids"
	AttrQueueURL              = "queue_url"
	AttrSubscriptionEndpoints = "subscription_endpoints"
	AttrPath                  = "path"
	AttrRetentionDays         = "retention_days"
	AttrDomainName            = "domain_name"
	AttrOriginDomains         = "origin_domains"
	AttrEnabled               = "enabled"
	AttrIntegrationArns       = "integration_arns"
	AttrSchedule              = "schedule"
	AttrEventBus              = "event_bus"
	AttrTargetArns            = "target_arns"
)
