package redis

import (
	"strconv"
)

// Redis Key 前缀（与其他服务共享，不可随意修改）
const (
	UserBaseInfoPrefix = "user_base_info:" // user_base_info:{uid} -> UserInfo JSON
	NameInfoPrefix     = "name_info:"      // name_info:{name} -> UserInfo JSON
	UserTokenPrefix    = "usertoken:"      // usertoken:{uid} -> token
	UserIPPrefix       = "user_ip:"        // user_ip:{uid} -> 所在节点名
	UserSessionPrefix  = "user_session:"   // user_session:{uid} -> 会话 ID
	LockPrefix         = "lock:"           // lock:{name} -> 持有者 token
	CodePrefix         = "code_"           // code_{email} -> 验证码（由 HTTP 网关维护）
)

// BuildUserBaseInfoKey user_base_info:{uid}
func BuildUserBaseInfoKey(uid int64) string {
	return UserBaseInfoPrefix + strconv.FormatInt(uid, 10)
}

// BuildNameInfoKey name_info:{name}
func BuildNameInfoKey(name string) string {
	return NameInfoPrefix + name
}

// BuildUserTokenKey usertoken:{uid}
func BuildUserTokenKey(uid int64) string {
	return UserTokenPrefix + strconv.FormatInt(uid, 10)
}

// BuildUserIPKey user_ip:{uid}
func BuildUserIPKey(uid int64) string {
	return UserIPPrefix + strconv.FormatInt(uid, 10)
}

// BuildUserSessionKey user_session:{uid}
func BuildUserSessionKey(uid int64) string {
	return UserSessionPrefix + strconv.FormatInt(uid, 10)
}

// BuildLockKey lock:{name}
func BuildLockKey(name string) string {
	return LockPrefix + name
}

// BuildCodeKey code_{email}
func BuildCodeKey(email string) string {
	return CodePrefix + email
}
