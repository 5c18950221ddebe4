package lane

// crossTable 路径冲突表
// 索引：[相对编号 (a-b) mod 4][a的意图][b的意图]，意图顺序为 左转、直行、右转
var crossTable = [Count][3][3]bool{
	{
		{true, true, true},
		{true, true, true},
		{true, true, true},
	},
	{
		{true, true, false},
		{true, true, false},
		{false, true, false},
	},
	{
		{true, true, true},
		{true, false, false},
		{true, false, false},
	},
	{
		{true, true, false},
		{true, true, true},
		{false, false, false},
	},
}

// Crosses 判断两条行驶路径是否相交
// 功能：根据进口车道的相对位置和双方意图查表判断冲突
// 参数：l,i-本车进口车道与意图，other,otherI-另一车进口车道与意图
// 返回：true表示路径相交，需要让行
// 说明：同一进口的车辆总是视为冲突，由车道间距传感器保证跟车安全
func Crosses(l Lane, i Intention, other Lane, otherI Intention) bool {
	return crossTable[l.Offset(other)][i.index()][otherI.index()]
}
