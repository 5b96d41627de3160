package news

// birthdayTemplate 生日公告的一条祝福模板，Body 中的 %s 替换为角色名
type birthdayTemplate struct {
	Body string
	Tags []string
}

var birthdayTemplates = []birthdayTemplate{
	{
		Body: "今天是%s的生日！旅行者们，一起送上最真挚的祝福吧～愿这一年的冒险都有好运相伴。",
		Tags: []string{"生日", "祝福"},
	},
	{
		Body: "提瓦特的风带来了好消息：今天是%s的生日！记得去游戏里领取生日邮件哦。",
		Tags: []string{"生日", "邮件"},
	},
	{
		Body: "生日快乐，%s！感谢一路以来的陪伴，派蒙已经准备好蛋糕啦。",
		Tags: []string{"生日", "派蒙"},
	},
	{
		Body: "又是一年生日季～今天让我们为%s庆祝，顺便看看最新的培养攻略吧！",
		Tags: []string{"生日", "攻略"},
	},
	{
		Body: "叮！今日寿星是%s。在评论区留下你和TA的冒险回忆吧。",
		Tags: []string{"生日", "互动"},
	},
}
