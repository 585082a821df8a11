// Copyright 2026 Converter Systems LLC. All rights reserved.

package explorer

// Attribute is one of the standard attribute ids of Part 6, Annex A.
type Attribute struct {
	ID   uint32
	Name string
}

// Attributes lists every standard attribute id in declaration order.
var Attributes = []Attribute{
	{1, "NodeId"},
	{2, "NodeClass"},
	{3, "BrowseName"},
	{4, "DisplayName"},
	{5, "Description"},
	{6, "WriteMask"},
	{7, "UserWriteMask"},
	{8, "IsAbstract"},
	{9, "Symmetric"},
	{10, "InverseName"},
	{11, "ContainsNoLoops"},
	{12, "EventNotifier"},
	{13, "Value"},
	{14, "DataType"},
	{15, "ValueRank"},
	{16, "ArrayDimensions"},
	{17, "AccessLevel"},
	{18, "UserAccessLevel"},
	{19, "MinimumSamplingInterval"},
	{20, "Historizing"},
	{21, "Executable"},
	{22, "UserExecutable"},
	{23, "DataTypeDefinition"},
	{24, "RolePermissions"},
	{25, "UserRolePermissions"},
	{26, "AccessRestrictions"},
	{27, "AccessLevelEx"},
}
